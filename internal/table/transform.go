package table

// Record is one raw source record keyed by header name.
type Record = map[string]string

// Row is one transformed record. Rows are immutable once built.
type Row struct {
	index  int
	values map[string]Value
}

// Index returns the row's position in the source file.
func (r Row) Index() int { return r.index }

// Get returns the value of column name, or an empty text value when the
// row has no such column.
func (r Row) Get(name string) Value {
	if v, ok := r.values[name]; ok {
		return v
	}
	return EmptyValue(KindText)
}

// NewRow builds a row from already-typed values. Used by tests and callers
// that do not go through Transform.
func NewRow(index int, values map[string]Value) Row {
	cp := make(map[string]Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Row{index: index, values: cp}
}

// Dataset is the full, ordered collection of transformed rows.
// Its order is source order and it is never mutated after creation.
type Dataset struct {
	rows []Row
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.rows) }

// Rows returns a copy of the rows in source order.
func (d Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// Transform converts raw records into a Dataset, one row per record in
// order. A field that is missing or fails to parse becomes the column's
// empty sentinel; the row is always kept.
func Transform(raw []Record, columns []Column) Dataset {
	rows := make([]Row, len(raw))
	for i, rec := range raw {
		values := make(map[string]Value, len(columns))
		for _, col := range columns {
			// A missing key reads as "", which every kind maps to its sentinel.
			values[col.Name] = col.Parse(rec[col.Name])
		}
		rows[i] = Row{index: i, values: values}
	}
	return Dataset{rows: rows}
}

package table

// Header describes one column heading.
type Header struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Class     string `json:"class,omitempty"`
	SortClass string `json:"sortClass,omitempty"` // ClassAscending, ClassDescending or ""
}

// Cell is one formatted value.
type Cell struct {
	Column string `json:"column"`
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Class  string `json:"class,omitempty"`
}

// ViewRow is one displayed row.
type ViewRow struct {
	Index int    `json:"index"` // Position in the source file
	Cells []Cell `json:"cells"`
}

// View is what the render collaborator receives: the visible window with
// every cell already formatted, plus the state needed for header icons,
// the match count and pagination links.
type View struct {
	Headers []Header    `json:"headers"`
	Rows    []ViewRow   `json:"rows"`
	Sort    SortState   `json:"sort"`
	Filter  FilterState `json:"filter"`
	Page    PageState   `json:"page"`
	Links   []PageLink  `json:"links"`
}

func (e *Engine) buildView() View {
	st := e.state

	headers := make([]Header, len(e.columns))
	for i, col := range e.columns {
		headers[i] = Header{
			Name:      col.Name,
			Label:     col.Label,
			Class:     col.Class,
			SortClass: st.sort.Class(col.Name),
		}
	}

	return View{
		Headers: headers,
		Rows:    FormatRows(st.window, e.columns),
		Sort:    st.sort,
		Filter:  st.filter,
		Page:    st.page,
		Links:   Navigation(st.page),
	}
}

// FormatRows formats every cell of rows with its column's formatter.
func FormatRows(rows []Row, columns []Column) []ViewRow {
	out := make([]ViewRow, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(columns))
		for j, col := range columns {
			v := row.Get(col.Name)
			cells[j] = Cell{
				Column: col.Name,
				Text:   col.Format(v, row),
				Title:  col.Title(v, row),
				Class:  col.Class,
			}
		}
		out[i] = ViewRow{Index: row.Index(), Cells: cells}
	}
	return out
}

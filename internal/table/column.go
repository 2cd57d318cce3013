package table

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ColumnKind converts a raw field into a Value and formats it for display.
// Parse must be total: malformed input maps to the kind's empty sentinel.
// Format may read sibling values from row.
type ColumnKind interface {
	Parse(raw string) Value
	Format(v Value, row Row) string
}

// Titler is implemented by kinds that attach a tooltip to a formatted cell.
type Titler interface {
	Title(v Value, row Row) string
}

// Column is the static descriptor of one field.
type Column struct {
	Name  string     // Key in the raw record
	Label string     // Header text
	Class string     // CSS class for header and cells
	Kind  ColumnKind // Nil means Text
}

func (c Column) kind() ColumnKind {
	if c.Kind == nil {
		return Text{}
	}
	return c.Kind
}

// Parse applies the column's transform to a raw field.
func (c Column) Parse(raw string) Value {
	return c.kind().Parse(raw)
}

// Format renders v for display.
func (c Column) Format(v Value, row Row) string {
	return c.kind().Format(v, row)
}

// Title returns the cell tooltip, or "" when the kind has none.
func (c Column) Title(v Value, row Row) string {
	if t, ok := c.kind().(Titler); ok {
		return t.Title(v, row)
	}
	return ""
}

// Text passes the cleaned cell through.
type Text struct{}

func (Text) Parse(raw string) Value { return ParseText(raw) }
func (Text) Format(v Value, _ Row) string { return v.String() }

// Number parses a decimal and prints it with a fixed number of decimals.
type Number struct {
	Decimals int
}

func (Number) Parse(raw string) Value { return ParseNumber(raw) }

func (n Number) Format(v Value, _ Row) string {
	f, ok := v.Float()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', n.Decimals, 64)
}

// DefaultDateLayout matches the original month/day/year display.
const DefaultDateLayout = "01/02/2006"

// Date parses a calendar date and prints it with Layout.
type Date struct {
	Layout string // Defaults to DefaultDateLayout
}

func (Date) Parse(raw string) Value { return ParseDate(raw) }

func (d Date) Format(v Value, _ Row) string {
	t, ok := v.Time()
	if !ok {
		return ""
	}
	layout := d.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// Currency parses an amount and prints it as "<symbol> <grouped amount>".
// The symbol is read from SymbolColumn of the same row; Units divides the
// stored amount (1000 for amounts kept in thousands, for example).
type Currency struct {
	Units        float64
	SymbolColumn string
	Symbol       string // Used when SymbolColumn is unset or empty
}

var amountPrinter = message.NewPrinter(language.English)

func (Currency) Parse(raw string) Value { return ParseNumber(raw) }

func (c Currency) Format(v Value, row Row) string {
	f, ok := v.Float()
	if !ok {
		return ""
	}
	units := c.Units
	if units == 0 {
		units = 1
	}

	symbol := c.Symbol
	if c.SymbolColumn != "" {
		if s := row.Get(c.SymbolColumn).String(); s != "" {
			symbol = s
		}
	}

	amount := groupAmount(f / units)
	if symbol == "" {
		return amount
	}
	return symbol + " " + amount
}

// groupAmount prints f with thousands separators, dropping the fraction
// for whole amounts.
func groupAmount(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return amountPrinter.Sprintf("%d", int64(f))
	}
	return amountPrinter.Sprintf("%.2f", f)
}

// CurrencyName shows an ISO currency code with its full name as tooltip.
type CurrencyName struct {
	Names map[string]string // Code -> name; defaults to CurrencyNames
}

// CurrencyNames maps the currency codes found in the funding data to names.
var CurrencyNames = map[string]string{
	"CAD": "Canadian Dollar",
	"EUR": "Euro",
	"USD": "United States Dollar",
}

func (CurrencyName) Parse(raw string) Value {
	return TextValue(strings.ToUpper(CleanCell(raw)))
}

func (CurrencyName) Format(v Value, _ Row) string { return v.String() }

func (c CurrencyName) Title(v Value, _ Row) string {
	names := c.Names
	if names == nil {
		names = CurrencyNames
	}
	return names[v.String()]
}

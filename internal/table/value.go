package table

import (
	"cmp"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ValueKind identifies which typed slot of a Value is populated.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindDate
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Value is a transformed cell. Exactly one of Text, Number or Date is used,
// selected by Kind. A slot with Valid=false is the empty sentinel produced
// when a raw field is missing or fails conversion.
type Value struct {
	Kind   ValueKind
	Text   pgtype.Text
	Number pgtype.Float8
	Date   pgtype.Date
}

// TextValue returns a text value. The empty string is still a valid text.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: pgtype.Text{String: s, Valid: true}}
}

// NumberValue returns a valid numeric value.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: pgtype.Float8{Float64: f, Valid: true}}
}

// DateValue returns a valid date value.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: pgtype.Date{Time: t, Valid: true}}
}

// EmptyValue returns the sentinel for kind.
func EmptyValue(kind ValueKind) Value {
	return Value{Kind: kind}
}

// IsEmpty reports whether v is the empty sentinel. A valid text holding ""
// is treated as empty too, so blank text cells order with failed numbers.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNumber:
		return !v.Number.Valid
	case KindDate:
		return !v.Date.Valid
	default:
		return !v.Text.Valid || v.Text.String == ""
	}
}

// String returns the textual form used for filtering: text as-is, numbers
// in shortest decimal form, dates as YYYY-MM-DD and the sentinel as "".
func (v Value) String() string {
	if v.IsEmpty() {
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number.Float64, 'f', -1, 64)
	case KindDate:
		return v.Date.Time.Format(time.DateOnly)
	default:
		return v.Text.String
	}
}

// Float returns the numeric payload and whether it is valid.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber || !v.Number.Valid {
		return 0, false
	}
	return v.Number.Float64, true
}

// Time returns the date payload and whether it is valid.
func (v Value) Time() (time.Time, bool) {
	if v.Kind != KindDate || !v.Date.Valid {
		return time.Time{}, false
	}
	return v.Date.Time, true
}

// Compare orders two values ascending. Empty values sort after every
// non-empty value and compare equal to each other. Values of the same kind
// use their natural order; mixed kinds fall back to their string forms.
func Compare(a, b Value) int {
	ae, be := a.IsEmpty(), b.IsEmpty()
	switch {
	case ae && be:
		return 0
	case ae:
		return 1
	case be:
		return -1
	}

	if a.Kind != b.Kind {
		return cmp.Compare(a.String(), b.String())
	}

	switch a.Kind {
	case KindNumber:
		return cmp.Compare(a.Number.Float64, b.Number.Float64)
	case KindDate:
		return a.Date.Time.Compare(b.Date.Time)
	default:
		return cmp.Compare(a.Text.String, b.Text.String)
	}
}

package table

// parse.go converts raw CSV cells into typed values.
//
// Source files are exported from spreadsheets and carry the usual noise:
//   - Excel formula prefixes (="value") and stray quotes
//   - Currency symbols, thousands separators, accounting negatives
//   - Several date layouts, including two-digit years
//
// Every parser here is total. Input it cannot understand yields the empty
// sentinel for its kind, never an error.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex matches a cleaned-up decimal number.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are moved back a century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06", "2-Jan-06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "2-Jan-2006",
		"20060102",
		time.RFC3339,
	}
)

// CleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseText returns the cleaned cell as text.
func ParseText(s string) Value {
	return TextValue(CleanCell(s))
}

// ParseNumber converts a cell to a number.
// Handles currency symbols, thousands separators and accounting format
// (parentheses for negative). Anything else is the empty sentinel.
func ParseNumber(s string) Value {
	s = CleanCell(s)
	if s == "" {
		return EmptyValue(KindNumber)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return EmptyValue(KindNumber)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return EmptyValue(KindNumber)
	}
	return NumberValue(f)
}

// ParseDate converts a cell to a date, trying four-digit year layouts
// first and then two-digit layouts with the pivot applied.
func ParseDate(s string) Value {
	s = CleanCell(s)
	if s == "" {
		return EmptyValue(KindDate)
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateValue(t)
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return DateValue(t)
		}
	}

	return EmptyValue(KindDate)
}

package table

import (
	"encoding/json"
	"slices"
)

// Sort classes applied to the header of the sorted column.
const (
	ClassAscending  = "ascending"
	ClassDescending = "descending"
)

// SortState is the current sort column and direction. The zero value is
// the unsorted state; a column is never set without a direction.
type SortState struct {
	column    string
	ascending bool
}

// Column returns the sorted column, or "" when unsorted.
func (s SortState) Column() string { return s.column }

// Ascending reports the direction. Meaningless when IsZero.
func (s SortState) Ascending() bool { return s.ascending }

// IsZero reports whether no column is selected.
func (s SortState) IsZero() bool { return s.column == "" }

// Class returns the header class for column under this state.
func (s SortState) Class(column string) string {
	if s.column == "" || s.column != column {
		return ""
	}
	if s.ascending {
		return ClassAscending
	}
	return ClassDescending
}

// Dir returns "asc", "desc" or "" when unsorted.
func (s SortState) Dir() string {
	switch {
	case s.column == "":
		return ""
	case s.ascending:
		return "asc"
	default:
		return "desc"
	}
}

// MarshalJSON encodes the state as {"column": ..., "dir": ...}.
func (s SortState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column string `json:"column"`
		Dir    string `json:"dir"`
	}{s.column, s.Dir()})
}

// Toggle returns the state after a click on column's header.
// A new column starts ascending; the current column flips direction.
// Clicking never returns to the unsorted state.
func (s SortState) Toggle(column string) SortState {
	if s.column != column {
		return SortState{column: column, ascending: true}
	}
	return SortState{column: column, ascending: !s.ascending}
}

// Sort returns a stably sorted copy of rows ordered by column. Descending
// inverts the comparison, so equal keys keep their relative order in both
// directions and empty values move from last to first.
func Sort(rows []Row, column string, ascending bool) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int {
		c := Compare(a.Get(column), b.Get(column))
		if !ascending {
			return -c
		}
		return c
	})
	return out
}

// apply sorts rows by the state, or copies them when unsorted.
func (s SortState) apply(rows []Row) []Row {
	if s.IsZero() {
		return slices.Clone(rows)
	}
	return Sort(rows, s.column, s.ascending)
}

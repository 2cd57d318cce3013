package table

import (
	"fmt"
	"strings"
)

// FilterMode selects which columns a query is matched against.
type FilterMode int

const (
	// FilterBroad matches the query against every column.
	FilterBroad FilterMode = iota
	// FilterNarrow matches the query against one designated column.
	FilterNarrow
)

// String returns the config spelling of the mode.
func (m FilterMode) String() string {
	switch m {
	case FilterBroad:
		return "broad"
	case FilterNarrow:
		return "narrow"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseFilterMode parses "broad" or "narrow" (case-insensitive).
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "broad":
		return FilterBroad, nil
	case "narrow":
		return FilterNarrow, nil
	default:
		return 0, fmt.Errorf("%w: unknown filter mode %q", ErrConfig, s)
	}
}

// FilterScope describes where a query is matched.
type FilterScope struct {
	Mode    FilterMode
	Column  string   // Designated column for FilterNarrow
	Columns []string // Columns searched in FilterBroad
}

// FilterState is the current query and how many rows it matched.
type FilterState struct {
	Query      string `json:"query"`
	MatchCount int    `json:"matchCount"`
}

// Filter returns the rows whose string form contains the trimmed query.
// Matching is case-sensitive and uses Value.String, not the formatted
// display text. An empty query returns rows unchanged. The result keeps
// the input order and never aliases rows.
func Filter(rows []Row, query string, scope FilterScope) []Row {
	query = strings.TrimSpace(query)

	out := make([]Row, 0, len(rows))
	if query == "" {
		return append(out, rows...)
	}

	for _, row := range rows {
		if scope.matches(row, query) {
			out = append(out, row)
		}
	}
	return out
}

func (s FilterScope) matches(row Row, query string) bool {
	if s.Mode == FilterNarrow {
		return strings.Contains(row.Get(s.Column).String(), query)
	}
	for _, name := range s.Columns {
		if strings.Contains(row.Get(name).String(), query) {
			return true
		}
	}
	return false
}

package table

import (
	"fmt"
	"strconv"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 10

// navigationRadius is how many page links are shown either side of the
// current page.
const navigationRadius = 2

// PageState locates the visible window within the filtered, sorted set.
// FirstRowIndex is inclusive and LastRowIndex exclusive.
type PageState struct {
	PageIndex     int `json:"pageIndex"`
	FirstRowIndex int `json:"firstRowIndex"`
	LastRowIndex  int `json:"lastRowIndex"`
	PageSize      int `json:"pageSize"`
	TotalPages    int `json:"totalPages"`
	TotalRows     int `json:"totalRows"`
}

// HasPrev reports whether a previous page exists.
func (p PageState) HasPrev() bool { return p.PageIndex > 0 }

// HasNext reports whether a next page exists.
func (p PageState) HasNext() bool { return p.PageIndex < p.TotalPages-1 }

// TotalPages returns ceil(rows/pageSize), which is 0 for no rows.
func TotalPages(rows, pageSize int) int {
	if rows <= 0 || pageSize <= 0 {
		return 0
	}
	return (rows + pageSize - 1) / pageSize
}

// Paginate slices rows into the window for pageIndex.
// Page 0 of an empty set is valid and yields an empty window; any other
// index outside [0, totalPages-1] returns ErrPageOutOfRange.
func Paginate(rows []Row, pageIndex, pageSize int) ([]Row, PageState, error) {
	if pageSize <= 0 {
		return nil, PageState{}, fmt.Errorf("%w: page size %d", ErrConfig, pageSize)
	}

	total := TotalPages(len(rows), pageSize)
	if pageIndex < 0 || (pageIndex > 0 && pageIndex >= total) {
		return nil, PageState{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, total)
	}

	first := pageIndex * pageSize
	last := min(len(rows), first+pageSize)

	window := make([]Row, last-first)
	copy(window, rows[first:last])

	return window, PageState{
		PageIndex:     pageIndex,
		FirstRowIndex: first,
		LastRowIndex:  last,
		PageSize:      pageSize,
		TotalPages:    total,
		TotalRows:     len(rows),
	}, nil
}

// LinkKind identifies the role of a navigation link.
type LinkKind string

const (
	LinkPrev  LinkKind = "prev"
	LinkFirst LinkKind = "first"
	LinkPage  LinkKind = "page"
	LinkLast  LinkKind = "last"
	LinkNext  LinkKind = "next"
)

// PageLink is one entry of the pagination control.
type PageLink struct {
	Kind    LinkKind `json:"kind"`
	Index   int      `json:"index"`
	Label   string   `json:"label"`
	Enabled bool     `json:"enabled"`
	Current bool     `json:"current"`
}

// Navigation builds the pagination links for state: previous, first,
// up to two pages either side of the current one, last and next.
// Previous and next are always present and disabled at the boundaries.
// First and last are present whenever there is at least one page.
func Navigation(state PageState) []PageLink {
	p, total := state.PageIndex, state.TotalPages

	links := []PageLink{{
		Kind:    LinkPrev,
		Index:   max(p-1, 0),
		Label:   "«",
		Enabled: p > 0,
	}}

	if total > 0 {
		links = append(links, PageLink{Kind: LinkFirst, Index: 0, Label: "First", Enabled: p != 0})

		from := max(0, p-navigationRadius)
		to := min(total-1, p+navigationRadius)
		for i := from; i <= to; i++ {
			links = append(links, PageLink{
				Kind:    LinkPage,
				Index:   i,
				Label:   strconv.Itoa(i + 1),
				Enabled: i != p,
				Current: i == p,
			})
		}

		links = append(links, PageLink{Kind: LinkLast, Index: total - 1, Label: "Last", Enabled: p != total-1})
	}

	return append(links, PageLink{
		Kind:    LinkNext,
		Index:   min(p+1, max(total-1, 0)),
		Label:   "»",
		Enabled: p < total-1,
	})
}

package table

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recorder captures every view handed to the renderer.
type recorder struct {
	views []View
}

func (r *recorder) Render(v View) { r.views = append(r.views, v) }

func (r *recorder) last() View { return r.views[len(r.views)-1] }

func newTestEngine(t *testing.T, opts Options) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.Renderer = rec
	if opts.Columns == nil {
		opts.Columns = testColumns
	}
	eng, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng, rec
}

// viewCompanies returns the company cell text of every row in v.
func viewCompanies(v View) []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Cells[0].Text
	}
	return out
}

func manyRecords(n int) []Record {
	raw := make([]Record, n)
	for i := range raw {
		city := "Austin"
		if i%2 == 1 {
			city = "Boston"
		}
		raw[i] = Record{
			"company": fmt.Sprintf("co%02d", i+1),
			"numEmps": fmt.Sprint(n - i),
			"city":    city,
		}
	}
	return raw
}

// ----------------------------------------------------------------------------
// Construction
// ----------------------------------------------------------------------------

func TestNewEngine_ConfigErrors(t *testing.T) {
	rec := &recorder{}

	tests := []struct {
		name string
		opts Options
	}{
		{"missing renderer", Options{Columns: testColumns}},
		{"no columns", Options{Renderer: rec}},
		{"duplicate column", Options{Renderer: rec, Columns: []Column{{Name: "a"}, {Name: "a"}}}},
		{"unnamed column", Options{Renderer: rec, Columns: []Column{{Label: "A"}}}},
		{"negative page size", Options{Renderer: rec, Columns: testColumns, PageSize: -1}},
		{"narrow without column", Options{Renderer: rec, Columns: testColumns, FilterMode: FilterNarrow}},
		{"narrow unknown column", Options{Renderer: rec, Columns: testColumns, FilterMode: FilterNarrow, FilterColumn: "nope"}},
		{"unknown mode", Options{Renderer: rec, Columns: testColumns, FilterMode: FilterMode(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := NewEngine(tt.opts)
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("NewEngine() error = %v, want ErrConfig", err)
			}
			if eng != nil {
				t.Error("NewEngine() returned an engine alongside an error")
			}
		})
	}

	if len(rec.views) != 0 {
		t.Errorf("renderer called %d times during failed construction", len(rec.views))
	}
}

func TestEngine_BeforeLoadIsEmpty(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})

	eng.ApplyFilter("anything")
	v := rec.last()
	if len(v.Rows) != 0 || v.Page.TotalPages != 0 || v.Filter.MatchCount != 0 {
		t.Errorf("empty engine view = %+v", v)
	}
	if err := eng.RequestPage(0); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("RequestPage(0) on empty data error = %v, want ErrPageOutOfRange", err)
	}
}

// ----------------------------------------------------------------------------
// Load
// ----------------------------------------------------------------------------

func TestEngine_Load(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(testRecords())

	if len(rec.views) != 1 {
		t.Fatalf("renders = %d, want 1", len(rec.views))
	}
	v := rec.last()

	if diff := cmp.Diff([]string{"A", "B", "C"}, viewCompanies(v)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if v.Filter != (FilterState{Query: "", MatchCount: 3}) {
		t.Errorf("Filter = %+v, want empty query matching 3", v.Filter)
	}
	if !v.Sort.IsZero() {
		t.Errorf("Sort = %+v, want unsorted", v.Sort)
	}
	if v.Page.PageIndex != 0 || v.Page.TotalPages != 1 {
		t.Errorf("Page = %+v, want page 0 of 1", v.Page)
	}

	// Cells are formatted per column and carry the column class.
	b := v.Rows[1]
	if got := b.Cells[1].Text; got != "" {
		t.Errorf("malformed numEmps formatted as %q, want empty", got)
	}
	if got := b.Cells[1].Class; got != "numeric-column" {
		t.Errorf("cell class = %q, want numeric-column", got)
	}
	if b.Index != 1 {
		t.Errorf("row index = %d, want 1", b.Index)
	}
}

func TestEngine_LoadResetsState(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(manyRecords(25))
	eng.ApplyFilter("Austin")
	_ = eng.ApplySort("company")
	_ = eng.RequestPage(1)

	eng.Load(testRecords())
	v := rec.last()
	if v.Filter.Query != "" || !v.Sort.IsZero() || v.Page.PageIndex != 0 {
		t.Errorf("state after reload = filter %+v sort %+v page %+v", v.Filter, v.Sort, v.Page)
	}
}

// ----------------------------------------------------------------------------
// Filter / Sort / Page
// ----------------------------------------------------------------------------

func TestEngine_FilterThenSortThenPage(t *testing.T) {
	eng, rec := newTestEngine(t, Options{PageSize: 5})
	eng.Load(manyRecords(25))

	eng.ApplyFilter("Austin") // co01, co03, ..., co25: 13 rows
	if got := rec.last().Filter.MatchCount; got != 13 {
		t.Fatalf("MatchCount = %d, want 13", got)
	}

	// numEmps counts down, so ascending by numEmps reverses source order.
	if err := eng.ApplySort("numEmps"); err != nil {
		t.Fatalf("ApplySort() error = %v", err)
	}
	v := rec.last()
	if diff := cmp.Diff([]string{"co25", "co23", "co21", "co19", "co17"}, viewCompanies(v)); diff != "" {
		t.Errorf("page 0 mismatch (-want +got):\n%s", diff)
	}
	if v.Headers[1].SortClass != ClassAscending {
		t.Errorf("numEmps header class = %q, want %q", v.Headers[1].SortClass, ClassAscending)
	}

	if err := eng.RequestPage(2); err != nil {
		t.Fatalf("RequestPage(2) error = %v", err)
	}
	v = rec.last()
	if diff := cmp.Diff([]string{"co05", "co03", "co01"}, viewCompanies(v)); diff != "" {
		t.Errorf("page 2 mismatch (-want +got):\n%s", diff)
	}

	// A new filter starts again from the dataset, keeps the sort and
	// returns to page 0.
	eng.ApplyFilter("co0")
	v = rec.last()
	if v.Page.PageIndex != 0 {
		t.Errorf("PageIndex after filter = %d, want 0", v.Page.PageIndex)
	}
	if diff := cmp.Diff([]string{"co09", "co08", "co07", "co06", "co05"}, viewCompanies(v)); diff != "" {
		t.Errorf("sorted filter mismatch (-want +got):\n%s", diff)
	}
	if v.Sort.Column() != "numEmps" || !v.Sort.Ascending() {
		t.Errorf("Sort after filter = (%q, %v), want (numEmps, true)", v.Sort.Column(), v.Sort.Ascending())
	}
}

func TestEngine_SortToggleSequence(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(testRecords())

	want := [][]string{
		{"C", "A", "B"}, // asc, empty last
		{"B", "A", "C"}, // desc, empty first
		{"C", "A", "B"}, // asc again
	}
	for i, w := range want {
		if err := eng.ApplySort("numEmps"); err != nil {
			t.Fatalf("click %d: ApplySort() error = %v", i, err)
		}
		if diff := cmp.Diff(w, viewCompanies(rec.last())); diff != "" {
			t.Errorf("click %d mismatch (-want +got):\n%s", i, diff)
		}
		if eng.Sort().Column() != "numEmps" {
			t.Errorf("click %d: column = %q, want numEmps", i, eng.Sort().Column())
		}
	}
}

func TestEngine_ApplySortUnknownColumn(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(testRecords())
	renders := len(rec.views)

	if err := eng.ApplySort("revenue"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("ApplySort(revenue) error = %v, want ErrUnknownColumn", err)
	}
	if len(rec.views) != renders {
		t.Error("unknown column triggered a render")
	}
	if !eng.Sort().IsZero() {
		t.Errorf("Sort = %+v, want unchanged", eng.Sort())
	}
}

func TestEngine_FilterAndSortResetPage(t *testing.T) {
	eng, _ := newTestEngine(t, Options{})
	eng.Load(manyRecords(40))

	if err := eng.RequestPage(3); err != nil {
		t.Fatalf("RequestPage(3) error = %v", err)
	}
	_ = eng.ApplySort("city")
	if got := eng.Page().PageIndex; got != 0 {
		t.Errorf("PageIndex after sort = %d, want 0", got)
	}

	_ = eng.RequestPage(2)
	eng.ApplyFilter("co")
	if got := eng.Page().PageIndex; got != 0 {
		t.Errorf("PageIndex after filter = %d, want 0", got)
	}
}

func TestEngine_RequestPage(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(manyRecords(25))

	if got := rec.last().Page.TotalPages; got != 3 {
		t.Fatalf("TotalPages = %d, want 3", got)
	}

	if err := eng.RequestPage(2); err != nil {
		t.Fatalf("RequestPage(2) error = %v", err)
	}
	v := rec.last()
	if diff := cmp.Diff([]string{"co21", "co22", "co23", "co24", "co25"}, viewCompanies(v)); diff != "" {
		t.Errorf("page 2 mismatch (-want +got):\n%s", diff)
	}
	wantPage := PageState{PageIndex: 2, FirstRowIndex: 20, LastRowIndex: 25, PageSize: 10, TotalPages: 3, TotalRows: 25}
	if v.Page != wantPage {
		t.Errorf("Page = %+v, want %+v", v.Page, wantPage)
	}

	// Idempotent.
	if err := eng.RequestPage(2); err != nil {
		t.Fatalf("second RequestPage(2) error = %v", err)
	}
	if diff := cmp.Diff(v, rec.last(), cmp.AllowUnexported(SortState{})); diff != "" {
		t.Errorf("repeated RequestPage changed the view (-first +second):\n%s", diff)
	}

	renders := len(rec.views)
	for _, bad := range []int{3, -1, 100} {
		if err := eng.RequestPage(bad); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("RequestPage(%d) error = %v, want ErrPageOutOfRange", bad, err)
		}
	}
	if len(rec.views) != renders {
		t.Errorf("rejected page requests rendered %d times", len(rec.views)-renders)
	}
	if eng.Page() != wantPage {
		t.Errorf("Page after rejected requests = %+v, want %+v", eng.Page(), wantPage)
	}
}

func TestEngine_StalePageAfterFilter(t *testing.T) {
	eng, _ := newTestEngine(t, Options{})
	eng.Load(manyRecords(25))
	_ = eng.RequestPage(2)

	eng.ApplyFilter("co0") // 9 rows, one page
	if err := eng.RequestPage(2); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("stale RequestPage(2) error = %v, want ErrPageOutOfRange", err)
	}
	if got := eng.Page().PageIndex; got != 0 {
		t.Errorf("PageIndex = %d, want 0", got)
	}
}

func TestEngine_NarrowFilter(t *testing.T) {
	eng, rec := newTestEngine(t, Options{FilterMode: FilterNarrow, FilterColumn: "city"})
	eng.Load(testRecords())

	eng.ApplyFilter("A") // matches city "Austin" only, not company "A"
	if diff := cmp.Diff([]string{"A", "C"}, viewCompanies(rec.last())); diff != "" {
		t.Errorf("narrow filter mismatch (-want +got):\n%s", diff)
	}

	eng.ApplyFilter("B")
	if diff := cmp.Diff([]string{"B"}, viewCompanies(rec.last())); diff != "" {
		t.Errorf("narrow filter mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ViewLinks(t *testing.T) {
	eng, rec := newTestEngine(t, Options{})
	eng.Load(manyRecords(25))

	links := rec.last().Links
	if links[0].Kind != LinkPrev || links[0].Enabled {
		t.Errorf("first link = %+v, want disabled prev", links[0])
	}
	if last := links[len(links)-1]; last.Kind != LinkNext || !last.Enabled {
		t.Errorf("last link = %+v, want enabled next", last)
	}
}

func TestEngine_SortedRowsSpansAllPages(t *testing.T) {
	eng, _ := newTestEngine(t, Options{})
	eng.Load(manyRecords(25))
	_ = eng.ApplySort("company")
	_ = eng.ApplySort("company") // descending

	rows := eng.SortedRows()
	if len(rows) != 25 {
		t.Fatalf("SortedRows() len = %d, want 25", len(rows))
	}
	if got := rows[0].Get("company").String(); got != "co25" {
		t.Errorf("first sorted row = %q, want co25", got)
	}
}

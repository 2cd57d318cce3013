package table

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Renderer receives the computed view after every state change.
// The engine never renders by itself.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

// Render calls f(v).
func (f RendererFunc) Render(v View) { f(v) }

// Options configure an Engine.
type Options struct {
	Columns  []Column
	Renderer Renderer
	PageSize int // Defaults to DefaultPageSize

	FilterMode   FilterMode
	FilterColumn string // Required for FilterNarrow

	Logger *slog.Logger // Defaults to slog.Default()
}

// state is everything derived from the dataset. It is rebuilt and swapped
// as a whole by each operation.
type state struct {
	filter   FilterState
	filtered []Row // Filter output, source order
	sort     SortState
	sorted   []Row // filtered, ordered by sort
	page     PageState
	window   []Row
}

// Engine owns a dataset and the filter, sort and page state derived from
// it. It runs Filter, Sort and Paginate on every change and hands the
// result to its Renderer.
//
// An Engine is not safe for concurrent use; callers serialize operations.
type Engine struct {
	columns  []Column
	renderer Renderer
	pageSize int
	scope    FilterScope
	logger   *slog.Logger

	dataset Dataset
	state   state
}

// NewEngine validates opts and returns an engine holding an empty dataset.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("%w: renderer is required", ErrConfig)
	}
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrConfig)
	}

	names := make([]string, 0, len(opts.Columns))
	for _, col := range opts.Columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: column with empty name", ErrConfig)
		}
		if slices.Contains(names, col.Name) {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrConfig, col.Name)
		}
		names = append(names, col.Name)
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("%w: page size %d must be positive", ErrConfig, pageSize)
	}

	scope := FilterScope{Mode: opts.FilterMode, Columns: names}
	switch opts.FilterMode {
	case FilterBroad:
	case FilterNarrow:
		if !slices.Contains(names, opts.FilterColumn) {
			return nil, fmt.Errorf("%w: filter column %q is not a table column", ErrConfig, opts.FilterColumn)
		}
		scope.Column = opts.FilterColumn
	default:
		return nil, fmt.Errorf("%w: filter mode %s", ErrConfig, opts.FilterMode)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		columns:  slices.Clone(opts.Columns),
		renderer: opts.Renderer,
		pageSize: pageSize,
		scope:    scope,
		logger:   logger,
	}
	e.state = e.initialState()
	return e, nil
}

// Load transforms raw records into the dataset, resets filter, sort and
// page, and renders the first page.
func (e *Engine) Load(raw []Record) {
	e.dataset = Transform(raw, e.columns)
	e.state = e.initialState()

	e.logger.Debug("dataset loaded", "rows", e.dataset.Len(), "columns", len(e.columns))
	e.render()
}

// ApplyFilter filters the dataset by query, re-applies the current sort to
// the result and shows its first page.
func (e *Engine) ApplyFilter(query string) {
	next := e.derive(query, e.state.sort)
	e.state = next

	e.logger.Debug("filter applied", "query", next.filter.Query, "matches", next.filter.MatchCount)
	e.render()
}

// ApplySort advances the sort toggle for column against the current
// filtered set and shows its first page.
func (e *Engine) ApplySort(column string) error {
	if !e.hasColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	next := e.derive(e.state.filter.Query, e.state.sort.Toggle(column))
	e.state = next

	e.logger.Debug("sort applied", "column", column, "dir", next.sort.Dir())
	e.render()
	return nil
}

// RequestPage shows page index of the current filtered, sorted set.
// An index outside [0, totalPages-1] returns ErrPageOutOfRange and leaves
// state untouched without rendering.
func (e *Engine) RequestPage(index int) error {
	if index < 0 || index >= e.state.page.TotalPages {
		e.logger.Debug("page request ignored", "page", index, "total_pages", e.state.page.TotalPages)
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, index, e.state.page.TotalPages)
	}

	window, page, err := Paginate(e.state.sorted, index, e.pageSize)
	if err != nil {
		return err
	}

	next := e.state
	next.page = page
	next.window = window
	e.state = next

	e.render()
	return nil
}

// View returns the view for the current state without rendering it.
func (e *Engine) View() View {
	return e.buildView()
}

// Columns returns the column descriptors in display order.
func (e *Engine) Columns() []Column {
	return slices.Clone(e.columns)
}

// Dataset returns the loaded dataset.
func (e *Engine) Dataset() Dataset {
	return e.dataset
}

// SortedRows returns the whole filtered, sorted set across all pages.
func (e *Engine) SortedRows() []Row {
	return slices.Clone(e.state.sorted)
}

// Sort returns the current sort state.
func (e *Engine) Sort() SortState { return e.state.sort }

// Filter returns the current filter state.
func (e *Engine) Filter() FilterState { return e.state.filter }

// Page returns the current page state.
func (e *Engine) Page() PageState { return e.state.page }

func (e *Engine) initialState() state {
	return e.derive("", SortState{})
}

// derive runs Filter, Sort and Paginate from the dataset, always landing
// on page 0.
func (e *Engine) derive(query string, sort SortState) state {
	rows := e.dataset.Rows()
	filtered := Filter(rows, query, e.scope)
	sorted := sort.apply(filtered)

	// Page 0 is always in range and pageSize was checked by NewEngine.
	window, page, _ := Paginate(sorted, 0, e.pageSize)

	return state{
		filter:   FilterState{Query: strings.TrimSpace(query), MatchCount: len(filtered)},
		filtered: filtered,
		sort:     sort,
		sorted:   sorted,
		page:     page,
		window:   window,
	}
}

func (e *Engine) hasColumn(name string) bool {
	return slices.ContainsFunc(e.columns, func(c Column) bool { return c.Name == name })
}

func (e *Engine) render() {
	e.renderer.Render(e.buildView())
}

package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvtable/internal/logging"
	"github.com/JonMunkholm/csvtable/internal/table"
)

// tableInfo is the JSON form of a table's identity and load status.
type tableInfo struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Status LoadStatus `json:"status"`
}

// viewResponse is the body of GET /api/table/{tableKey}/view.
type viewResponse struct {
	Table tableInfo  `json:"table"`
	View  table.View `json:"view"`
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
	Loaded int    `json:"loaded"`
}

// exportFlushInterval is how many CSV rows are written between flushes.
const exportFlushInterval = 1000

// handleHealth reports liveness and how many tables have loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, loaded := s.catalog.Counts()
	writeJSON(w, healthResponse{Status: "ok", Tables: total, Loaded: loaded})
}

// handleIndex redirects to the first registered table.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tables := s.catalog.Tables()
	if len(tables) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no tables registered", errUnknownTable))
		return
	}
	http.Redirect(w, r, tablePath(tables[0].Key), http.StatusFound)
}

// handleListTables returns every table with its load status.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	infos := s.catalog.Tables()
	out := make([]tableInfo, 0, len(infos))
	for _, info := range infos {
		snap, _ := s.catalog.Get(info.Key)
		out = append(out, tableInfo{Key: info.Key, Label: info.Label, Status: snap.Status})
	}
	writeJSON(w, out)
}

// handleTablePage renders the session's current view of a table.
func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := sessionFromContext(r.Context()).withTable(snap, s.opts, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderTable(w, r, snap, view)
}

// handleFilter applies the search box query.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	query := r.PostFormValue("q")
	s.mutate(w, r, func(e *table.Engine) error {
		e.ApplyFilter(query)
		return nil
	})
}

// handleSort toggles the sort on a column header.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	s.mutate(w, r, func(e *table.Engine) error {
		return e.ApplySort(column)
	})
}

// handlePage shows another page. Out-of-range pages leave the view as is.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %q", errBadPage, raw))
		return
	}
	s.mutate(w, r, func(e *table.Engine) error {
		return e.RequestPage(index)
	})
}

// mutate runs op on the session's engine, then answers with the table
// fragment for htmx or redirects back to the page otherwise.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op func(*table.Engine) error) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := sessionFromContext(r.Context()).withTable(snap, s.opts, op)
	switch {
	case errors.Is(err, table.ErrPageOutOfRange):
		logging.FromContext(r.Context()).Debug("page request ignored", "table", snap.Definition.Info.Key, "error", err)
	case err != nil:
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderTable(w, r, snap, view)
		return
	}
	http.Redirect(w, r, tablePath(snap.Definition.Info.Key), http.StatusSeeOther)
}

// handleViewJSON returns the session's current view as JSON.
func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := sessionFromContext(r.Context()).withTable(snap, s.opts, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	info := snap.Definition.Info
	writeJSON(w, viewResponse{
		Table: tableInfo{Key: info.Key, Label: info.Label, Status: snap.Status},
		View:  view,
	})
}

// handleExport streams every row of the session's filtered, sorted set as
// CSV, formatted the way the table shows it.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	switch snap.Status {
	case StatusPending:
		s.respondError(w, r, errNotLoaded)
		return
	case StatusFailed:
		s.respondError(w, r, fmt.Errorf("%w: %w", errSourceFailed, snap.Err))
		return
	}

	cols, rows, err := sessionFromContext(r.Context()).exportRows(snap, s.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	key := snap.Definition.Info.Key
	filename := fmt.Sprintf("%s_%s.csv", key, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return
	}

	record := make([]string, len(cols))
	for i, row := range rows {
		for j, cell := range row.Cells {
			record[j] = cell.Text
		}
		if err := cw.Write(record); err != nil {
			logging.FromContext(r.Context()).Warn("export aborted", "table", key, "error", err)
			return
		}
		if (i+1)%exportFlushInterval == 0 {
			cw.Flush()
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
	cw.Flush()

	logging.WithFields(r.Context(), "table", key).Info("export completed", "rows", len(rows))
}

// snapshot resolves the {tableKey} URL parameter.
func (s *Server) snapshot(r *http.Request) (Snapshot, error) {
	key := chi.URLParam(r, "tableKey")
	snap, ok := s.catalog.Get(key)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", errUnknownTable, key)
	}
	return snap, nil
}

// renderTable writes the table fragment for htmx, the full page otherwise.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, snap Snapshot, view table.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var err error
	if isHTMX(r) {
		err = TablePartial(snap.Definition.Info.Key, snap.Status, view).Render(r.Context(), w)
	} else {
		err = Page(PageData{
			Tables: s.catalog.Tables(),
			Active: snap.Definition.Info,
			Status: snap.Status,
			View:   view,
		}).Render(r.Context(), w)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}

package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/csvtable/internal/config"
	"github.com/JonMunkholm/csvtable/internal/table"
)

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

var peopleDef = table.Definition{
	Info: table.Info{Key: "people", Label: "People", Source: "people.csv"},
	Columns: []table.Column{
		{Name: "company", Label: "Company", Class: "text-column"},
		{Name: "numEmps", Label: "Employees", Class: "numeric-column", Kind: table.Number{}},
		{Name: "city", Label: "City"},
	},
}

// peopleRecords returns n records: company coNN, numEmps n-i and a city
// alternating Austin and Boston.
func peopleRecords(n int) []table.Record {
	out := make([]table.Record, n)
	for i := range n {
		city := "Austin"
		if i%2 == 1 {
			city = "Boston"
		}
		out[i] = table.Record{
			"company": fmt.Sprintf("co%02d", i),
			"numEmps": fmt.Sprint(n - i),
			"city":    city,
		}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 5 * time.Second},
		Table:   config.TableConfig{PageSize: 10, FilterMode: "broad"},
		Session: config.SessionConfig{TTL: time.Hour, MaxSessions: 100, CleanupInterval: time.Minute},
	}
}

// newTestServer returns a server whose catalog holds peopleDef; when
// loaded is true it already has 25 records.
func newTestServer(t *testing.T, loaded bool) (*Server, *Catalog) {
	t.Helper()

	catalog := NewCatalog([]table.Definition{peopleDef})
	if loaded {
		catalog.Set("people", peopleRecords(25), nil)
	}

	s, err := NewServer(testConfig(), catalog)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, catalog
}

type request struct {
	method string
	path   string
	form   url.Values
	cookie *http.Cookie
	htmx   bool
}

func do(t *testing.T, s *Server, req request) *httptest.ResponseRecorder {
	t.Helper()

	method := req.method
	if method == "" {
		method = http.MethodGet
	}
	var r *http.Request
	if req.form != nil {
		r = httptest.NewRequest(method, req.path, strings.NewReader(req.form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, req.path, nil)
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}
	if req.htmx {
		r.Header.Set("HX-Request", "true")
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, r)
	return rec
}

// startSession opens the table page and returns the session cookie.
func startSession(t *testing.T, s *Server) *http.Cookie {
	t.Helper()

	rec := do(t, s, request{path: "/table/people"})
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// viewBody mirrors the parts of viewResponse the tests inspect.
type viewBody struct {
	Table struct {
		Key    string `json:"key"`
		Status string `json:"status"`
	} `json:"table"`
	View struct {
		Rows []struct {
			Cells []struct {
				Column string `json:"column"`
				Text   string `json:"text"`
			} `json:"cells"`
		} `json:"rows"`
		Filter struct {
			Query      string `json:"query"`
			MatchCount int    `json:"matchCount"`
		} `json:"filter"`
		Page struct {
			PageIndex  int `json:"pageIndex"`
			TotalPages int `json:"totalPages"`
			TotalRows  int `json:"totalRows"`
		} `json:"page"`
		Sort struct {
			Column string `json:"column"`
			Dir    string `json:"dir"`
		} `json:"sort"`
	} `json:"view"`
}

func (v viewBody) companies() []string {
	var out []string
	for _, row := range v.View.Rows {
		for _, c := range row.Cells {
			if c.Column == "company" {
				out = append(out, c.Text)
			}
		}
	}
	return out
}

func getView(t *testing.T, s *Server, cookie *http.Cookie) viewBody {
	t.Helper()

	rec := do(t, s, request{path: "/api/table/people/view", cookie: cookie})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET view status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body viewBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return body
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

// ----------------------------------------------------------------------------
// Routing Tests
// ----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, request{path: "/healthz"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := healthResponse{Status: "ok", Tables: 1, Loaded: 1}
	if got != want {
		t.Errorf("health = %+v, want %+v", got, want)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("health check should not start a session")
	}
}

func TestIndexRedirects(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, request{path: "/"})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/table/people" {
		t.Errorf("Location = %q, want /table/people", loc)
	}
}

func TestTablePage(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, request{path: "/table/people"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `id="table-root"`, "co00", "co09", "Rows 1-10 of 25"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "co10") {
		t.Error("page shows a row beyond the first page")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not set")
	}
}

func TestTablePage_Pending(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, request{path: "/table/people"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Loading data") {
		t.Error("pending table should show a loading notice")
	}
}

func TestUnknownTable(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, request{path: "/table/nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("page status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "TBL001") {
		t.Errorf("page body = %q, want code TBL001", rec.Body.String())
	}

	rec = do(t, s, request{path: "/api/table/nope/view"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("api status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := decodeError(t, rec).Code; got != "TBL001" {
		t.Errorf("api code = %q, want TBL001", got)
	}
}

// ----------------------------------------------------------------------------
// Interaction Tests
// ----------------------------------------------------------------------------

func TestFilterSortPage(t *testing.T) {
	s, _ := newTestServer(t, true)
	cookie := startSession(t, s)

	// Plain form posts redirect back to the page.
	rec := do(t, s, request{method: http.MethodPost, path: "/table/people/filter", form: url.Values{"q": {"co0"}}, cookie: cookie})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("filter status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/table/people" {
		t.Errorf("filter Location = %q, want /table/people", loc)
	}

	v := getView(t, s, cookie)
	if v.View.Filter.Query != "co0" || v.View.Filter.MatchCount != 10 {
		t.Errorf("filter = %+v, want co0 matching 10", v.View.Filter)
	}

	// htmx posts get the fragment back.
	rec = do(t, s, request{method: http.MethodPost, path: "/table/people/sort/numEmps", cookie: cookie, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("sort status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Error("htmx response should be a fragment")
	}
	if !strings.Contains(rec.Body.String(), `class="numeric-column ascending"`) {
		t.Error("sorted header should carry the ascending class")
	}

	v = getView(t, s, cookie)
	if v.View.Sort.Column != "numEmps" || v.View.Sort.Dir != "asc" {
		t.Errorf("sort = %+v, want numEmps asc", v.View.Sort)
	}
	want := []string{"co09", "co08", "co07", "co06", "co05", "co04", "co03", "co02", "co01", "co00"}
	if diff := cmp.Diff(want, v.companies()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPaging(t *testing.T) {
	s, _ := newTestServer(t, true)
	cookie := startSession(t, s)

	rec := do(t, s, request{method: http.MethodPost, path: "/table/people/page/2", cookie: cookie, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("page status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Rows 21-25 of 25") {
		t.Error("last page fragment should show rows 21-25")
	}

	// Out of range is ignored: same view, no error.
	rec = do(t, s, request{method: http.MethodPost, path: "/table/people/page/7", cookie: cookie, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("out-of-range status = %d, want %d", rec.Code, http.StatusOK)
	}
	v := getView(t, s, cookie)
	if v.View.Page.PageIndex != 2 {
		t.Errorf("PageIndex = %d, want 2", v.View.Page.PageIndex)
	}

	rec = do(t, s, request{method: http.MethodPost, path: "/table/people/page/abc", cookie: cookie, htmx: true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric page status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "TBL004") {
		t.Errorf("non-numeric page body = %q, want TBL004 alert", rec.Body.String())
	}
}

func TestSortUnknownColumn(t *testing.T) {
	s, _ := newTestServer(t, true)
	cookie := startSession(t, s)

	rec := do(t, s, request{method: http.MethodPost, path: "/table/people/sort/salary", cookie: cookie, htmx: true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `role="alert"`) || !strings.Contains(rec.Body.String(), "TBL002") {
		t.Errorf("body = %q, want TBL002 alert fragment", rec.Body.String())
	}

	if v := getView(t, s, cookie); v.View.Sort.Column != "" {
		t.Errorf("sort column = %q, want unchanged", v.View.Sort.Column)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s, _ := newTestServer(t, true)
	alice := startSession(t, s)
	bob := startSession(t, s)

	if alice.Value == bob.Value {
		t.Fatal("sessions share an ID")
	}

	do(t, s, request{method: http.MethodPost, path: "/table/people/filter", form: url.Values{"q": {"Boston"}}, cookie: alice})

	if got := getView(t, s, alice).View.Filter.MatchCount; got != 12 {
		t.Errorf("alice MatchCount = %d, want 12", got)
	}
	if got := getView(t, s, bob).View.Filter.MatchCount; got != 25 {
		t.Errorf("bob MatchCount = %d, want 25", got)
	}
}

func TestSessionPicksUpLateLoad(t *testing.T) {
	s, catalog := newTestServer(t, false)
	cookie := startSession(t, s)

	v := getView(t, s, cookie)
	if v.Table.Status != string(StatusPending) || v.View.Page.TotalRows != 0 {
		t.Fatalf("before load: status %q rows %d, want pending and empty", v.Table.Status, v.View.Page.TotalRows)
	}

	catalog.Set("people", peopleRecords(3), nil)

	v = getView(t, s, cookie)
	if v.Table.Status != string(StatusLoaded) || v.View.Page.TotalRows != 3 {
		t.Errorf("after load: status %q rows %d, want loaded and 3", v.Table.Status, v.View.Page.TotalRows)
	}
}

// ----------------------------------------------------------------------------
// Export Tests
// ----------------------------------------------------------------------------

func TestExport(t *testing.T) {
	s, _ := newTestServer(t, true)
	cookie := startSession(t, s)

	do(t, s, request{method: http.MethodPost, path: "/table/people/filter", form: url.Values{"q": {"co1"}}, cookie: cookie})
	do(t, s, request{method: http.MethodPost, path: "/table/people/sort/numEmps", cookie: cookie})

	rec := do(t, s, request{path: "/api/table/people/export", cookie: cookie})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}

	// co10..co19 match; ascending employees puts co19 (6) first.
	if len(records) != 11 {
		t.Fatalf("export rows = %d, want header + 10", len(records))
	}
	if diff := cmp.Diff([]string{"Company", "Employees", "City"}, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"co19", "6", "Boston"}, records[1]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_NotReady(t *testing.T) {
	s, catalog := newTestServer(t, false)

	rec := do(t, s, request{path: "/api/table/people/export"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("pending status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if got := decodeError(t, rec).Code; got != "TBL003" {
		t.Errorf("pending code = %q, want TBL003", got)
	}

	catalog.Set("people", nil, errors.New("disk on fire"))

	rec = do(t, s, request{path: "/api/table/people/export"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failed status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := decodeError(t, rec)
	if body.Code != "SRC001" {
		t.Errorf("failed code = %q, want SRC001", body.Code)
	}
	if strings.Contains(body.Message, "disk on fire") {
		t.Error("error detail leaked to client")
	}
}

// ----------------------------------------------------------------------------
// Catalog Tests
// ----------------------------------------------------------------------------

func TestCatalogLoadAll(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "people.csv"), []byte("company,numEmps,city\nAcme,3,Austin\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	missing := table.Definition{Info: table.Info{Key: "missing", Source: "missing.csv"}, Columns: peopleDef.Columns}
	catalog := NewCatalog([]table.Definition{peopleDef, missing})

	select {
	case <-catalog.LoadAll(context.Background(), dir, 5*time.Second):
	case <-time.After(5 * time.Second):
		t.Fatal("LoadAll() did not finish")
	}

	people, _ := catalog.Get("people")
	if people.Status != StatusLoaded || len(people.Records) != 1 || people.Version != 1 {
		t.Errorf("people = %s with %d records v%d, want loaded, 1, v1", people.Status, len(people.Records), people.Version)
	}

	gone, _ := catalog.Get("missing")
	if gone.Status != StatusFailed || gone.Err == nil {
		t.Errorf("missing = %s err %v, want failed with error", gone.Status, gone.Err)
	}

	if total, loaded := catalog.Counts(); total != 2 || loaded != 1 {
		t.Errorf("Counts() = %d, %d, want 2, 1", total, loaded)
	}
}

func TestNewServer_RejectsBadFilterColumn(t *testing.T) {
	cfg := testConfig()
	cfg.Table.FilterMode = "narrow"
	cfg.Table.FilterColumn = "salary"

	_, err := NewServer(cfg, NewCatalog([]table.Definition{peopleDef}))
	if !errors.Is(err, table.ErrConfig) {
		t.Errorf("NewServer() error = %v, want %v", err, table.ErrConfig)
	}
}

package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvtable/internal/logging"
	"github.com/JonMunkholm/csvtable/internal/table"
)

// SessionCookie is the name of the cookie carrying the session ID.
const SessionCookie = "csvtable_session"

// EngineOptions are the settings applied to every engine a session builds.
type EngineOptions struct {
	PageSize     int
	FilterMode   table.FilterMode
	FilterColumn string
}

// Session is one browser's table state. Each table gets its own engine,
// created on first use. Operations on a session run one at a time.
type Session struct {
	ID string

	mu       sync.Mutex
	lastSeen time.Time
	tables   map[string]*tableSession
}

// tableSession pairs an engine with the last view it rendered.
type tableSession struct {
	engine  *table.Engine
	view    table.View
	version uint64 // Catalog version the engine was loaded from
}

// SessionStore maps session IDs to sessions and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessionStore creates an empty store. Sessions idle longer than ttl
// are dropped; when max is reached the least recently used is evicted.
func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Get returns the live session for id and marks it used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// Create starts a new session with a random ID.
func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.max {
		s.evictOldest()
	}

	sess := &Session{
		ID:       uuid.NewString(),
		lastSeen: s.now(),
		tables:   make(map[string]*tableSession),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Len returns the number of stored sessions, including expired ones not
// yet swept.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired sessions swept", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *SessionStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.lastSeen.Before(oldest) {
			oldestID, oldest = id, sess.lastSeen
		}
	}
	delete(s.sessions, oldestID)
}

// sessionCtxKey stores the *Session in request contexts.
type sessionCtxKey struct{}

// sessionFromContext returns the session attached by the session middleware.
func sessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return sess
}

// sessions attaches a session to every request, creating one and setting
// the cookie when the request has none or its session has expired.
func (s *Server) sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *Session
		if c, err := r.Cookie(SessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sess, _ = s.store.Get(c.Value)
			}
		}
		if sess == nil {
			sess = s.store.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		ctx = logging.WithSession(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTable runs fn against the session's engine for the table in snap,
// building the engine on first use and reloading it when the catalog holds
// newer records. fn runs with the session locked. The returned view is the
// last one the engine rendered.
func (sess *Session) withTable(snap Snapshot, opts EngineOptions, fn func(*table.Engine) error) (table.View, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := snap.Definition.Info.Key
	ts, ok := sess.tables[key]
	if !ok {
		ts = &tableSession{}
		engine, err := table.NewEngine(table.Options{
			Columns:      snap.Definition.Columns,
			Renderer:     table.RendererFunc(func(v table.View) { ts.view = v }),
			PageSize:     opts.PageSize,
			FilterMode:   opts.FilterMode,
			FilterColumn: opts.FilterColumn,
			Logger:       slog.Default().With("table", key, "session_id", sess.ID),
		})
		if err != nil {
			return table.View{}, err
		}
		ts.engine = engine
		ts.view = engine.View()
		sess.tables[key] = ts
	}

	if snap.Status == StatusLoaded && snap.Version != ts.version {
		ts.engine.Load(snap.Records)
		ts.version = snap.Version
	}

	if fn != nil {
		if err := fn(ts.engine); err != nil {
			return ts.view, err
		}
	}
	return ts.view, nil
}

// exportRows returns the formatted full filtered, sorted set for key.
func (sess *Session) exportRows(snap Snapshot, opts EngineOptions) ([]table.Column, []table.ViewRow, error) {
	var cols []table.Column
	var rows []table.ViewRow
	_, err := sess.withTable(snap, opts, func(e *table.Engine) error {
		cols = e.Columns()
		rows = table.FormatRows(e.SortedRows(), cols)
		return nil
	})
	return cols, rows, err
}

// Package web provides the HTTP server for browsing registered tables.
//
// Each browser session gets its own table engine per table, so search,
// sort and page state survive between requests without being shared.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvtable/internal/config"
	"github.com/JonMunkholm/csvtable/internal/table"
	"github.com/JonMunkholm/csvtable/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the table UI and its JSON API.
type Server struct {
	cfg     *config.Config
	catalog *Catalog
	store   *SessionStore
	opts    EngineOptions
	router  *chi.Mux
	server  *http.Server

	// background stops the session janitor and rate limiter cleanup.
	background context.Context
	stop       context.CancelFunc
}

// NewServer creates a Server for the tables in catalog. It fails when the
// table settings in cfg cannot build an engine for every table, for
// example a narrow filter column missing from one of them.
func NewServer(cfg *config.Config, catalog *Catalog) (*Server, error) {
	opts := EngineOptions{
		PageSize:     cfg.Table.PageSize,
		FilterMode:   cfg.Table.Mode(),
		FilterColumn: cfg.Table.FilterColumn,
	}
	for _, info := range catalog.Tables() {
		snap, _ := catalog.Get(info.Key)
		if err := checkEngine(snap.Definition, opts); err != nil {
			return nil, fmt.Errorf("table %s: %w", info.Key, err)
		}
	}

	bg, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg,
		catalog:    catalog,
		store:      NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions),
		opts:       opts,
		router:     chi.NewRouter(),
		background: bg,
		stop:       stop,
	}
	go s.store.RunJanitor(bg, cfg.Session.CleanupInterval)

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// checkEngine builds a throwaway engine to surface configuration errors
// at startup instead of on the first request.
func checkEngine(def table.Definition, opts EngineOptions) error {
	_, err := table.NewEngine(table.Options{
		Columns:      def.Columns,
		Renderer:     table.RendererFunc(func(table.View) {}),
		PageSize:     opts.PageSize,
		FilterMode:   opts.FilterMode,
		FilterColumn: opts.FilterColumn,
	})
	return err
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions)

		r.Get("/", s.handleIndex)
		r.Route("/table/{tableKey}", func(r chi.Router) {
			r.Get("/", s.handleTablePage)
			r.Post("/filter", s.handleFilter)
			r.Post("/sort/{column}", s.handleSort)
			r.Post("/page/{index}", s.handlePage)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/tables", s.handleListTables)
			r.Get("/table/{tableKey}/view", s.handleViewJSON)

			export := r.With()
			if s.cfg.Rate.Enabled {
				export = r.With(s.newRateLimiter(s.cfg.Rate.ExportLimit, time.Minute).middleware)
			}
			export.Get("/table/{tableKey}/export", s.handleExport)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time
}

type visitor struct {
	count       int
	windowStart time.Time
}

// newRateLimiter creates a limiter whose cleanup stops with the server.
func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
	go rl.cleanup(s.background)
	return rl
}

// cleanup drops visitors whose window ended long ago.
func (rl *rateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for ip, v := range rl.visitors {
				if now.Sub(v.windowStart) > 2*rl.window {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow counts one request for ip and reports whether it is within the limit.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		rl.visitors[ip] = &visitor{count: 1, windowStart: now}
		return true
	}
	if v.count >= rl.rate {
		return false
	}
	v.count++
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeJSONStatus(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute and try again",
				Code:    "RATE001",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

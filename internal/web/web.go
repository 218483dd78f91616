package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"weekview/internal/config"
	"weekview/internal/dateutil"
	appLog "weekview/internal/log"
	"weekview/internal/source"
	"weekview/internal/timeaxis"
)

// maxSessions bounds how many calendars can be mounted at once.
const maxSessions = 256

// Server exposes the week view over HTTP. Each client mounts its own
// calendar instance (a session) and drives it with scroll reports; the
// server answers with the pages to draw and the jumps/swipes that resulted.
type Server struct {
	cfg   *config.Config
	store *source.Store
	mux   *http.ServeMux

	// now is the clock used for default selected dates and "today".
	now func() time.Time

	sessionsMu sync.Mutex
	sessions   map[string]*session

	times timeaxis.Builder
	// timesMu guards times; the builder itself is single-threaded.
	timesMu sync.Mutex
}

// NewServer constructs a new Server. store may be nil, in which case every
// session renders an empty grid.
func NewServer(cfg *config.Config, store *source.Store) *Server {
	if store == nil {
		store = source.NewStore()
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		mux:      http.NewServeMux(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than lock everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully and unmounts every session.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeAll()
	appLog.Info("HTTP server stopped")
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/times", s.handleTimes)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /week", s.handleWeek)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/scroll", s.handleScroll)
	s.mux.HandleFunc("POST /api/sessions/{id}/scroll-end", s.handleScrollEnd)
	s.mux.HandleFunc("POST /api/sessions/{id}/step", s.handleStep)
	s.mux.HandleFunc("POST /api/sessions/{id}/press", s.handlePress)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// timesResponse is the JSON response shape for /api/times.
type timesResponse struct {
	HoursInDisplay float64  `json:"hours_in_display"`
	Labels         []string `json:"labels"`
}

// handleTimes returns the time-axis labels.
//
// GET /api/times?hours=6
//   - hours: hours per screen (default: view.hours_in_display)
func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	hours := parseFloatDefault(r.URL.Query().Get("hours"), s.cfg.View.HoursInDisplay)

	s.timesMu.Lock()
	labels, err := s.times.Labels(hours)
	s.timesMu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, timesResponse{HoursInDisplay: hours, Labels: labels})
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Version       uint64     `json:"version"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Events        []eventDTO `json:"events"`
	TruncatedUIDs []string   `json:"truncated_uids,omitempty"`
}

// handleEvents returns the raw event list currently in the store, optionally
// limited to events overlapping one day.
//
// GET /api/events?day=2021-06-07
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, version := s.store.Snapshot()

	var day time.Time
	if key := r.URL.Query().Get("day"); key != "" {
		loc, err := s.cfg.Location()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "invalid timezone")
			return
		}
		day, err = dateutil.ParseKey(key, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		if !day.IsZero() && (ev.End.Before(day) || ev.Start.After(dateutil.EndOfDay(day))) {
			continue
		}
		dtos = append(dtos, toEventDTO(ev, nil))
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Version:       version,
		UpdatedAt:     s.store.UpdatedAt(),
		Events:        dtos,
		TruncatedUIDs: s.store.Truncated(),
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// decodeJSON reads a small JSON body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

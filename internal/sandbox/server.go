// Package sandbox runs a loopback organization service for local development
// and for exercising the client end to end.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/kingrea/orgdesk/internal/config"
	"github.com/kingrea/orgdesk/internal/orgapi"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

var errServerDisabled = errors.New("sandbox: server disabled")

// Logger is the subset of logging the server needs.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and handlers backing the sandbox service.
type Server struct {
	settings Settings
	store    *Store
	logger   Logger
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithStore shares an existing store with the server.
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a sandbox server using the provided settings.
func NewServer(settings Settings, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.store = NewStore(WithStoreClock(s.clock))
	}
	return s
}

// Store exposes the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler builds the route table. It is exported so tests can drive the
// service through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, orgapi.Envelope{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, orgapi.Envelope{Error: "method not allowed"})
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	orgs := s.settings.OrganizationsPath
	r.HandleFunc(orgs, s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc(orgs, s.handleList).Methods(http.MethodGet)
	r.HandleFunc(orgs+"/{id}", s.handleGet).Methods(http.MethodGet)
	return r
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("sandbox: server is nil")
	}
	if !s.settings.Enabled {
		return errServerDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("sandbox: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("sandbox: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("sandbox: serve error: %v", err)
		}
	}()
	s.logger.Printf("sandbox: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	Organizations int    `json:"organizations"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Organizations: s.store.Len(),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, orgapi.Envelope{Error: "empty body"})
		return
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, orgapi.Envelope{Error: "payload exceeds limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, orgapi.Envelope{Error: "unable to read body"})
		return
	}
	var in NewOrganization
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, orgapi.Envelope{Error: "invalid JSON"})
		return
	}
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, orgapi.Envelope{Error: err.Error()})
		return
	}
	org, err := s.store.Create(in)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			writeJSON(w, http.StatusConflict, orgapi.Envelope{Error: err.Error()})
			return
		}
		s.logger.Printf("sandbox: create organization: %v", err)
		writeJSON(w, http.StatusInternalServerError, orgapi.Envelope{Error: "organization could not be created"})
		return
	}
	s.logger.Printf("sandbox: created organization %s (%s)", org.ID, org.Name)
	writeJSON(w, http.StatusCreated, orgapi.Envelope{Success: true, Organization: &org})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, orgapi.Envelope{Success: true, Organizations: s.store.List()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	org, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, orgapi.Envelope{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, orgapi.Envelope{Success: true, Organization: &org})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(config.DefaultRequestIDHeader); id != "" {
			w.Header().Set(config.DefaultRequestIDHeader, id)
			s.logger.Printf("sandbox: %s %s request_id=%s", r.Method, r.URL.Path, id)
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/cellwatch/cellwatch/pkg/history"
	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/metrics"
	"github.com/cellwatch/cellwatch/pkg/monitor"
	"github.com/cellwatch/cellwatch/pkg/source"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// Server serves the engine's HTTP surface.
type Server struct {
	engine  *monitor.Engine
	router  *mux.Router
	logger  zerolog.Logger
	version string
}

// NewServer creates a server over the given engine.
func NewServer(engine *monitor.Engine, version string) *Server {
	s := &Server{
		engine:  engine,
		router:  mux.NewRouter(),
		logger:  log.WithComponent("api"),
		version: version,
	}

	s.router.HandleFunc("/v1/events", s.handleIngest).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/export", s.handleExport).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler())

	return s
}

// Handler returns the HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API on addr until the listener fails.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	return server.ListenAndServe()
}

// IngestResponse reports the outcome of one posted notification.
type IngestResponse struct {
	EventID  string `json:"event_id"`
	Admitted bool   `json:"admitted"`
}

// handleIngest accepts a notification from a network source adapter.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var n source.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid notification body")
		return
	}
	if n.Type == "" {
		s.writeError(w, http.StatusBadRequest, "notification type is required")
		return
	}

	evt, admitted := s.engine.Ingest(n)
	resp := IngestResponse{EventID: evt.ID, Admitted: admitted}
	if !admitted {
		s.writeJSON(w, http.StatusTooManyRequests, resp)
		return
	}
	s.writeJSON(w, http.StatusAccepted, resp)
}

// handleEvents serves the history query: ?type=&limit=&since=RFC3339.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := history.Query{
		Type: types.EventType(r.URL.Query().Get("type")),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = limit
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since timestamp, want RFC3339")
			return
		}
		q.Since = since
	}

	events := s.engine.History(q)
	if events == nil {
		events = []*types.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Statistics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.engine.Export()
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(snapshot))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version,omitempty"`
	Initialized bool      `json:"initialized"`
}

// handleHealth is a liveness check: 200 whenever the process is serving.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Version:     s.version,
		Initialized: s.engine.Initialized(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

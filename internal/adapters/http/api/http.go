// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/personnel-insights/internal/domain/personnel"
	"github.com/okian/personnel-insights/pkg/logger"
)

// Default limits.
const defaultMaxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Predictor
	Readiness
	StatsProvider
}

// Predictor turns one JSON request body into a prediction.
type Predictor interface {
	PredictJSON(ctx context.Context, body []byte) (personnel.Prediction, error)
}

// Readiness reports whether the models are loaded.
type Readiness interface {
	Ready() bool
	Reason() string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLegacyStatusCodes makes /predict answer 200 for every prediction
// failure, reporting the problem only in the body.
func WithLegacyStatusCodes(enabled bool) Option {
	return func(s *Server) {
		s.legacy = enabled
	}
}

// WithMaxBodyBytes caps the /predict request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	legacy       bool
	maxBodyBytes int64
	logger       logger.Logger

	predictHandler   *PredictHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.predictHandler = NewPredictHandler(deps, s.logger, s.maxBodyBytes, s.legacy)
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.dashboardHandler = newDashboardHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/predict", RequestIDMiddleware(MetricsMiddleware(s.predictHandler.HandlePredict, "predict")))
	mux.HandleFunc("/healthz", RequestIDMiddleware(MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", RequestIDMiddleware(MetricsMiddleware(s.statsHandler.HandleStats, "stats")))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

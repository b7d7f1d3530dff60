package api

import (
	"net/http"

	"github.com/okian/personnel-insights/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check and scrape requests.
type HealthHandler struct {
	readiness Readiness
	scrape    http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(r Readiness) *HealthHandler {
	return &HealthHandler{
		readiness: r,
		scrape:    promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelsReady bool   `json:"models_ready"`
	Reason      string `json:"reason,omitempty"`
}

// HandleHealth handles GET /healthz. It answers 503 while the models are
// unavailable so orchestrators can keep the instance out of rotation.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, NewKind("api.healthz", ErrMethodNotAllowed))
		return
	}
	if h.readiness.Ready() {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelsReady: true})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, healthResponse{
		Status: "degraded",
		Reason: h.readiness.Reason(),
	})
}

// HandleMetrics serves the Prometheus scrape from the custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.scrape.ServeHTTP(w, r)
}

package health

import (
	"encoding/json"
	"net/http"
	"time"

	"pulsedesk/internal/store"
	"pulsedesk/pkg/logger"
)

// AnalyzerInfo exposes the analyzer state the health endpoints report.
type AnalyzerInfo interface {
	AnalysisCount() int64
	ErrorCount() int64
}

// Handler provides health check endpoints. Checks are freshness-based:
// a source is healthy while its worker has updated the store within
// the staleness window, there are no external dependencies to ping.
type Handler struct {
	log         *logger.Logger
	store       *store.Store
	analyzer    AnalyzerInfo
	staleAfter  time.Duration
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler. staleAfter is how long a
// source may go without an update before it is reported degraded.
func New(
	log *logger.Logger,
	st *store.Store,
	analyzer AnalyzerInfo,
	staleAfter time.Duration,
	serviceName string,
	version string,
) *Handler {
	return &Handler{
		log:         log,
		store:       st,
		analyzer:    analyzer,
		staleAfter:  staleAfter,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic. The
// service is ready as soon as it is running: an empty cache serves
// empty payloads, it does not fail requests.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ready",
		"service": h.serviceName,
	})
}

// HandleHealth returns detailed health status with per-source
// freshness checks
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sys := h.store.Status()

	checks := map[string]ComponentHealth{
		"prices":   h.checkSource(sys.CryptoBot),
		"news":     h.checkSource(sys.NewsBot),
		"analyzer": h.checkAnalyzer(),
	}

	healthyCount := 0
	for _, c := range checks {
		if c.Status == "healthy" {
			healthyCount++
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	switch {
	case healthyCount == 0:
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Health check failed", "checks", checks)
	case healthyCount < len(checks):
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// checkSource reports a worker-fed source healthy while its last store
// update is within the staleness window.
func (h *Handler) checkSource(src store.SourceStatus) ComponentHealth {
	if src.LastUpdate == nil {
		return ComponentHealth{
			Status: "degraded",
			Error:  "no data collected yet",
		}
	}

	updated, err := time.Parse(time.RFC3339, *src.LastUpdate)
	if err != nil {
		return ComponentHealth{
			Status: "degraded",
			Error:  "unparseable last update timestamp",
		}
	}

	health := ComponentHealth{
		Status:     "healthy",
		LastUpdate: *src.LastUpdate,
	}
	if time.Since(updated) > h.staleAfter {
		health.Status = "degraded"
		health.Error = "data is stale"
	}
	return health
}

// checkAnalyzer reports the analysis service state. The analyzer is
// optional: a missing one degrades health rather than failing it.
func (h *Handler) checkAnalyzer() ComponentHealth {
	if h.analyzer == nil {
		return ComponentHealth{
			Status: "degraded",
			Error:  "analysis service not configured",
		}
	}
	return ComponentHealth{Status: "healthy"}
}

package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/middleware"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/service"
	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

// StatusHandler exposes the collector's health and the summary of its most
// recent run
type StatusHandler struct {
	mu        sync.RWMutex
	startTime time.Time
	version   string
	lastRun   *service.RunSummary
}

// NewStatusHandler creates a status handler
func NewStatusHandler(version string) *StatusHandler {
	return &StatusHandler{
		startTime: time.Now(),
		version:   version,
	}
}

// Record stores the summary of a finished collection run
func (h *StatusHandler) Record(summary *service.RunSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = summary
}

// HealthHandler reports process liveness
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
		"uptime":    time.Since(h.startTime).String(),
	})
}

// RunStatusHandler reports the last collection run
func (h *StatusHandler) RunStatusHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	lastRun := h.lastRun
	h.mu.RUnlock()

	if lastRun == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "waiting",
		})
		return
	}

	status := "ok"
	if lastRun.Failed() {
		status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"last_run":       lastRun,
		"total_mappings": lastRun.Mappings(),
	})
}

// writeJSON renders a JSON response
func (h *StatusHandler) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// NewRouter builds the status endpoint router
func NewRouter(h *StatusHandler, log *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging(log))
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/status", h.RunStatusHandler).Methods(http.MethodGet)
	return router
}

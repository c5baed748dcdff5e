package handlers

import (
	"net/http"

	"github.com/dreamstate/guest-assistant/internal/dataset"
)

// SnapshotSource reports the snapshot currently held in memory, if any.
type SnapshotSource interface {
	Peek() *dataset.Snapshot
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	source SnapshotSource
}

// NewHealthHandler creates a health handler. source may be nil.
func NewHealthHandler(source SnapshotSource) *HealthHandler {
	return &HealthHandler{source: source}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy","service":"guest-assistant"}`))
}

// Ready handles GET /ready. It reports 503 until a snapshot has been loaded.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.source == nil || h.source.Peek() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"loading"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"prooftree/internal/httputil"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and archive reachability.
type HealthHandler struct {
	archive Pinger
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler. archive may be nil.
func NewHealthHandler(archive Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{archive: archive, logger: logger}
}

// HealthCheck returns 200 when the service and its archive are up
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"archive": "disabled",
	}

	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.archive.Ping(ctx); err != nil {
			h.logger.Warn("archive ping failed", "error", err)
			body["status"] = "degraded"
			body["archive"] = "unavailable"
			httputil.RespondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["archive"] = "ok"
	}

	httputil.RespondJSON(w, http.StatusOK, body)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"

	"go.uber.org/zap"
)

const readinessTimeout = 3 * time.Second

// Pinger checks that the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	base
	store Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		base:  base{errors: errorHandler, logger: logger},
		store: store,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, common.Envelope{"status": "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		h.respondJSON(w, http.StatusServiceUnavailable, common.Envelope{
			"status":  "unavailable",
			"message": err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, common.Envelope{"status": "ready"})
}

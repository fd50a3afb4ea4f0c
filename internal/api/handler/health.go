package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/dependencies/clock"
	"github.com/mcoot/bingopot/internal/services/registry"
)

// HealthHandler reports the configured backends and whether storage answers
type HealthHandler struct {
	registry    *registry.Service
	clock       clock.Clock
	logger      *slog.Logger
	storageType string
	bankType    string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *registry.Service, clk clock.Clock, logger *slog.Logger, storageType, bankType string) *HealthHandler {
	return &HealthHandler{
		registry:    registry,
		clock:       clk,
		logger:      logger,
		storageType: storageType,
		bankType:    bankType,
	}
}

// Get handles GET /api/v1/health. It is 503 when storage cannot be read.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	health := response.Health{
		Status:  "ok",
		Storage: h.storageType,
		Bank:    h.bankType,
		Time:    h.clock.Now(),
	}

	latest, err := h.registry.LatestGameID(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", slog.String("storage", h.storageType), slog.String("error", err.Error()))
		health.Status = "unavailable"
		health.Error = err.Error()
		response.JSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health.LatestGameID = uint64(latest)

	response.JSON(w, http.StatusOK, health)
}

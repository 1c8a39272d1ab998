package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/dto"
)

// HealthProbe is satisfied by *database.Manager
type HealthProbe interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports process and database liveness
type HealthHandler struct {
	probe        HealthProbe
	poolStats    func() any
	timeProvider coreport.TimeProvider
}

// NewHealthHandler creates a new health handler. poolStats may be nil.
func NewHealthHandler(probe HealthProbe, poolStats func() any, timeProvider coreport.TimeProvider) *HealthHandler {
	return &HealthHandler{
		probe:        probe,
		poolStats:    poolStats,
		timeProvider: timeProvider,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:   "ok",
		Database: "up",
		Time:     h.timeProvider.Now().UTC().Format(time.RFC3339),
	}
	if h.poolStats != nil {
		resp.Pool = h.poolStats()
	}

	if err := h.probe.HealthCheck(c.Request.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LivenessMessage is the plain-text body of GET /
const LivenessMessage = "🟢 Server is running"

const defaultHealthTimeout = 2 * time.Second

// HealthCheck pings one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SystemHandler handles liveness and health endpoints
type SystemHandler struct {
	BaseHandler
	checks  []HealthCheck
	timeout time.Duration
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(checks ...HealthCheck) *SystemHandler {
	return &SystemHandler{
		checks:  checks,
		timeout: defaultHealthTimeout,
	}
}

// Root godoc
// @ID           root
// @Summary      Liveness probe
// @Tags         system
// @Produce      plain
// @Success      200 {string} string
// @Router       / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, LivenessMessage)
}

// Health godoc
// @ID           health
// @Summary      Dependency health
// @Description  Pings the database and, when configured, Redis
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed",
				zap.String("check", check.Name),
				zap.Error(err),
			)
			resp.Status = "unavailable"
			resp.Checks[check.Name] = "unavailable"
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

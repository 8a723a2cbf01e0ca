// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/engine"
	"macmon/internal/enumerate"
	"macmon/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	config     *config.Config
	engine     *engine.Engine
	enumerator enumerate.PortEnumerator
	logger     *utils.ServiceLogger
	startedAt  time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, eng *engine.Engine, enumerator enumerate.PortEnumerator, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		config:     cfg,
		engine:     eng,
		enumerator: enumerator,
		logger:     utils.NewServiceLogger(logger, "health-handler"),
		startedAt:  time.Now(),
	}
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including serial subsystem availability
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).String(),
		Checks:    make(map[string]CheckResult),
	}

	ports, err := h.enumerator.ListPorts(c.Request.Context())
	if err != nil {
		health.Status = "unhealthy"
		health.Checks["serial"] = CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		health.Checks["serial"] = CheckResult{
			Status:  "healthy",
			Message: "Serial enumeration OK",
			Data: map[string]interface{}{
				"visible_ports": len(ports),
			},
		}
	}

	state := h.engine.State()
	health.Checks["engine"] = CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"monitoring":    state.Monitoring,
			"known_ports":   len(state.KnownPorts),
			"pending_ports": len(state.PendingPorts),
			"record_count":  state.RecordCount,
		},
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Description Check if service is ready to accept traffic
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if _, err := h.enumerator.ListPorts(c.Request.Context()); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "serial subsystem not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

package handler

import (
	"net/http"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/websocket"
	"github.com/gin-gonic/gin"
)

// maxWSConnections is where the hub starts reporting degraded
const maxWSConnections = 10

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	metrics   *metrics.Metrics
	wsHub     *websocket.Hub
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. wsHub may be nil.
func NewHealthHandler(m *metrics.Metrics, wsHub *websocket.Hub, version string) *HealthHandler {
	return &HealthHandler{
		metrics:   m,
		wsHub:     wsHub,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// DetailedHealthCheck returns comprehensive health information
// @Summary Detailed health check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health [get]
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	components := map[string]metrics.HealthStatus{
		"memory":   metrics.CheckMemoryHealth(512),
		"last_run": metrics.CheckLastRunHealth(h.metrics),
	}

	if h.wsHub != nil {
		components["websocket"] = h.checkWebSocketHealth()
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// checkWebSocketHealth checks WebSocket hub health
func (h *HealthHandler) checkWebSocketHealth() metrics.HealthStatus {
	if h.wsHub.GetConnectionCount() > maxWSConnections {
		return metrics.HealthStatus{
			Status:  "degraded",
			Message: "WebSocket connections near limit",
		}
	}
	return metrics.HealthStatus{Status: "healthy"}
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

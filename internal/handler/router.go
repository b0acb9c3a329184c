package handler

import (
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig holds what NewRouter wires together
type RouterConfig struct {
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Auth      middleware.AuthConfig
	Health    *HealthHandler
	Runs      *RunHandler
	WebSocket *WebSocketHandler
}

// NewRouter builds the HTTP surface of the serve command
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(cfg.Logger)) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics(cfg.Metrics))

	// Públicos
	r.GET("/health", cfg.Health.DetailedHealthCheck)
	r.GET("/health/live", cfg.Health.LivenessCheck)
	r.GET("/metrics", cfg.Health.GetMetrics)

	// Grupo de rotas protegidas
	auth := middleware.BearerAuth(cfg.Auth)
	api := r.Group("/api/v1")
	api.Use(auth, middleware.Audit())
	{
		api.GET("/preview", cfg.Runs.Preview)
		api.POST("/runs", cfg.Runs.CreateRun)
		if cfg.WebSocket != nil {
			api.GET("/ws/stats", cfg.WebSocket.GetConnectionStats)
		}
	}

	if cfg.WebSocket != nil {
		r.GET("/ws", auth, cfg.WebSocket.HandleConnection)
	}

	return r
}

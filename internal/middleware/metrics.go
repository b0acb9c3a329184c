package middleware

import (
	"net/http"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics tracks request metrics
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start).Milliseconds()
		statusCode := c.Writer.Status()

		m.IncrementRequests(statusCode < 400, latency)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.TrackEndpoint(path, c.Request.Method, statusCode, latency)
	}
}

// Audit logs an audit event for every state-changing request
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			logger.AuditRequest(
				c.Request.Context(),
				c.Request.Method,
				c.Request.URL.Path,
				c.Writer.Status(),
				time.Since(start).Milliseconds(),
				c.ClientIP(),
			)
		}
	}
}

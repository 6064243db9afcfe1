package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

// LoggingMiddleware logs all incoming requests with timing and tags each
// one with a request id
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		requestID := uuid.NewString()
		c.Set("requestId", requestID)
		c.Header("X-Request-ID", requestID)

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method
		clientIP := c.ClientIP()

		// Build log event
		event := logger.Log.Info()
		if status >= 400 {
			event = logger.Log.Warn()
		}
		if status >= 500 {
			event = logger.Log.Error()
		}

		event.
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Str("query", rawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", clientIP).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}

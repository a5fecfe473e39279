package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/logger"
	"handyconnect-server/resp"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs each request once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if p, ok := GetPrincipal(c); ok {
			fields = append(fields, zap.String("principal", p.String()))
		}

		switch {
		case status >= 500:
			logger.Error("⚠️ Request failed", fields...)
		case status >= 400:
			logger.Warn("⚠️ Request rejected", fields...)
		default:
			logger.Info("✅ Request", fields...)
		}
	}
}

// Recovery turns a panic into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("💥 Panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				resp.Error(c, apperror.NewStoreError("process request", nil))
			}
		}()
		c.Next()
	}
}

package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/landsync/internal/logger"
)

// LoggerKey is the context key for the request-scoped logger.
const LoggerKey = "logger"

// quietPrefixes are polled by orchestrators and scrapers; successful hits log at debug.
var quietPrefixes = []string{"/health", "/metrics"}

// Logger creates a middleware that logs HTTP requests using structured logging.
// It captures request details, duration, status code, and any errors.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if len(c.Request.URL.RawQuery) > 0 {
			fields["query"] = c.Request.URL.RawQuery
		}
		if c.Request.ContentLength > 0 {
			fields["bytes_in"] = c.Request.ContentLength
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		statusCode := c.Writer.Status()
		switch {
		case statusCode >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case statusCode >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		case isQuiet(c.Request.URL.Path):
			requestLogger.Debug("Request completed", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(LoggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}

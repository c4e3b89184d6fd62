package handlers

import (
	"net/http"
	"time"

	"github.com/iwtcode/shuiService/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// Пути, которые опрашиваются постоянно и логируются только на уровне DEBUG.
var quietPaths = map[string]bool{
	"/metrics":              true,
	"/api/v1/printer/state": true,
}

func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Warn("Request failed", fields...)
		case quietPaths[c.Request.URL.Path]:
			logger.Debug("Request completed", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

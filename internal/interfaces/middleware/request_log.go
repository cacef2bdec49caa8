package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchdesk/cms/pkg/auth"
	"github.com/matchdesk/cms/pkg/logger"
)

// RequestLogger writes one access log line per request. Errors handlers attached with
// c.Error are included.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := c.GetString(ContextKeyRequestID); id != "" {
			fields = append(fields, "request_id", id)
		}
		if id := c.GetString(ContextKeyTraceID); id != "" {
			fields = append(fields, "trace_id", id)
		}
		if u, ok := c.Get(auth.ContextKeyUser); ok {
			if user, ok := u.(auth.UserSession); ok {
				fields = append(fields, "user_id", user.ID)
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

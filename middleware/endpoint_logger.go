package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smilespace/clinic-api/util"
)

// EndpointCallLogger records each HTTP request as an audit event. It relies
// on util.SetAuditLoggerDB having been called during startup so events are
// persisted to the audit_logs table.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventEndpointCall,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details: map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.FullPath(),
				"raw_path":    c.Request.URL.Path,
				"status":      status,
				"duration_ms": duration.Milliseconds(),
				"query":       c.Request.URL.RawQuery,
			},
		})
	}
}

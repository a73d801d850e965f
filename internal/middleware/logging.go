package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/fall-in/internal/logger"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger reads or generates a request id, puts a child logger into the
// request context and logs the completed request with status and latency.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		child := base.With(
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)
		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(logger.Into(c.Request.Context(), child))

		c.Next()

		attrs := []any{"status", c.Writer.Status(), logger.Since(start)}
		if userID := c.GetString(ContextUserID); userID != "" {
			attrs = append(attrs, "user_id", userID)
		}
		child.Info("request completed", attrs...)
	}
}

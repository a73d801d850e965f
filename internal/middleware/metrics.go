package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/metrics"
)

// Metrics records every request against its route pattern.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

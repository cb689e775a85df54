package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hxuan190/arb-engine/internal/metrics"
)

// Scrape and probe traffic is left out of the request metrics.
var unmeteredPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// Unmatched routes share one label so random paths cannot blow up cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if _, skip := unmeteredPaths[path]; skip {
			c.Next()
			return
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
)

// Metrics counts served requests by route pattern and status
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

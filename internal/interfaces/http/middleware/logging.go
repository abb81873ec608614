package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/prometheus"
)

// Logging emits one structured log line per request and records the HTTP
// metrics.  metrics may be nil.
func Logging(log logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if metrics != nil {
			metrics.HTTPActiveRequests.WithLabelValues().Inc()
		}

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if metrics != nil {
			metrics.HTTPActiveRequests.WithLabelValues().Dec()
			metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
			logging.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request handled", fields...)
		}
	}
}

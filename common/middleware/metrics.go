package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/bistro-backend/common/logger"
	awspkg "github.com/yashrajoria/bistro-backend/pkg/aws"
)

// BatchRecorder is the part of awspkg.MetricsClient the HTTP metrics need.
type BatchRecorder interface {
	IsEnabled() bool
	PutBatch(ctx context.Context, data []awspkg.Datum, dimensions map[string]string) error
}

// MetricsMiddleware sends one batch per request: a request count, the latency
// and, for failures, a 4xx or 5xx count. Nothing is sent for a nil or disabled recorder.
func MetricsMiddleware(recorder BatchRecorder, serviceName string) gin.HandlerFunc {
	if recorder == nil || !recorder.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		data := []awspkg.Datum{
			awspkg.Count(awspkg.MetricHTTPRequests),
			awspkg.Latency(awspkg.MetricHTTPLatency, time.Since(start)),
		}
		switch {
		case status >= 500:
			data = append(data, awspkg.Count(awspkg.MetricHTTP5xx))
		case status >= 400:
			data = append(data, awspkg.Count(awspkg.MetricHTTP4xx))
		}
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Route":   route,
			"Status":  statusCodeToRange(status),
		}

		ctx := context.WithoutCancel(c.Request.Context())
		go func() {
			sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := recorder.PutBatch(sendCtx, data, dims); err != nil {
				logger.Warn(ctx, "Failed to ship request metrics", zap.String("route", route), zap.Error(err))
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	case statusCode >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Metrics records request latency and request counts per route. Instrument
// creation errors fall back to no-op recording.
func Metrics(meter metric.Meter) gin.HandlerFunc {
	durationHistogram, _ := meter.Int64Histogram(
		"http.server.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("The latency of HTTP requests."),
	)
	requestCounter, _ := meter.Int64Counter(
		"http.server.requests_total",
		metric.WithDescription("The total number of HTTP requests."),
	)
	errorCounter, _ := meter.Int64Counter(
		"http.server.error_requests_total",
		metric.WithDescription("The total number of HTTP requests answered with a 4xx or 5xx status."),
	)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		_, authenticated := c.Get(IdentityKey)
		attrs := metric.WithAttributes(
			semconv.HTTPRouteKey.String(c.FullPath()),
			semconv.HTTPMethodKey.String(c.Request.Method),
			semconv.HTTPStatusCodeKey.Int(status),
			attribute.Bool("authenticated", authenticated),
		)
		ctx := c.Request.Context()
		if durationHistogram != nil {
			durationHistogram.Record(ctx, time.Since(start).Milliseconds(), attrs)
		}
		if requestCounter != nil {
			requestCounter.Add(ctx, 1, attrs)
		}
		if status >= 400 && errorCounter != nil {
			errorCounter.Add(ctx, 1, attrs)
		}
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
)

// ObservabilityMiddleware returns a Gin middleware that integrates Prometheus metrics and OpenTelemetry tracing.
// For each HTTP request, it starts a server span (continuing an incoming W3C trace context) and records
// request totals, duration and in-flight count labelled by method, route template and status.
// ObservabilityMiddleware 返回一个集成了 Prometheus 指标和 OpenTelemetry 跟踪的 Gin 中间件。
func ObservabilityMiddleware(tracer trace.Tracer, metrics *monitoring.Metrics) gin.HandlerFunc {
	propagator := propagation.TraceContext{}
	return func(c *gin.Context) {
		start := time.Now()
		metrics.ActiveRequestsInc()
		defer metrics.ActiveRequestsDec()

		// Use c.FullPath() to get the route template (e.g., "/users/:user_id") for low-cardinality labels.
		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, path, status, time.Since(start))

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)
		if len(c.Errors) > 0 {
			monitoring.RecordError(span, c.Errors.Last())
		}
	}
}

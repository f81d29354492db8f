package middleware

import (
	"context"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedRoute = "unmatched"

type requestInstruments struct {
	total    *telemetry.Counter
	latency  *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func (ri *requestInstruments) observe(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	ri.latency.RecordDuration(ctx, elapsed, attrs...)
	ri.total.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
}

// HTTPMetrics counts requests per route template, records their latency and
// tracks in-flight requests. With a nil meter, or if the instruments cannot be
// created, it passes requests through untouched.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	ri, err := buildRequestInstruments(meter)
	if err != nil || ri == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ri.inFlight.Add(ctx, 1)
		defer ri.inFlight.Add(ctx, -1)

		start := time.Now()
		c.Next()
		ri.observe(ctx, c, time.Since(start))
	}
}

func buildRequestInstruments(meter metric.Meter) (*requestInstruments, error) {
	if meter == nil {
		return nil, nil
	}
	var (
		ri  requestInstruments
		err error
	)
	if ri.total, err = telemetry.NewCounter(meter, "http_server_request_total",
		"HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if ri.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if ri.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &ri, nil
}

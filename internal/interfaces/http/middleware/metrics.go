package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stockwave/harmony/internal/infrastructure/telemetry"
)

var (
	attrStatusClass     = attribute.Key("http.status_class")
	responseSizeBuckets = []float64{256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20}
	passThrough         = func(c *gin.Context) { c.Next() }
)

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (m *httpMetrics, err error) {
	m = &httpMetrics{}
	if m.requests, err = telemetry.NewCounter(meter,
		"harmony_http_requests_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "harmony_http_request_duration_seconds",
		Description: "Time to serve an HTTP request",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "harmony_http_response_size_bytes",
		Description: "Size of HTTP response bodies",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("harmony_http_in_flight_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics counts requests and measures latency and response size per
// route pattern, so /products/1 and /products/2 share a series. A nil meter
// or a failed instrument registration yields a pass-through.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		status := c.Writer.Status()
		route := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		m.requests.Inc(ctx, append(route, telemetry.AttrHTTPStatusCode.Int(status))...)
		m.latency.RecordDuration(ctx, time.Since(start), append(route, attrStatusClass.String(statusClass(status)))...)
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, float64(n), route...)
		}
	}
}

// routePattern is the matched gin route or "unknown" for unmatched paths
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func statusClass(code int) string {
	if code < 200 || code > 599 {
		return "other"
	}
	return string(rune('0'+code/100)) + "xx"
}

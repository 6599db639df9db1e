package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    time.Minute,
		ServiceName:       "harmony-test",
	}

	mp, err := NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

// collect reads all metrics from reader keyed by instrument name
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestVariationMetrics(t *testing.T) {
	_, err := NewVariationMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewVariationMetrics(provider.Meter("harmony-test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordGeneration(ctx, 6, 2, nil)
	m.RecordGeneration(ctx, 0, 0, errors.New("too many"))
	m.RecordBulkEdit(ctx, "set_sku", nil)
	m.RecordSubmission(ctx, 3, 2, 1, 150*time.Millisecond, nil)
	m.RecordImageUpload(ctx, "s3", errors.New("denied"))

	got := collect(t, reader)

	gens := got["harmony_variation_generations_total"]
	assert.Equal(t, int64(1), sumFor(t, gens, AttrOutcome.String("success")))
	assert.Equal(t, int64(1), sumFor(t, gens, AttrOutcome.String("error")))
	assert.Equal(t, int64(2), sumFor(t, got["harmony_variations_dropped_total"]))
	assert.Equal(t, int64(1), sumFor(t, got["harmony_variation_bulk_edits_total"],
		AttrBulkAction.String("set_sku"), AttrOutcome.String("success")))

	sent := got["harmony_variations_submitted_total"]
	assert.Equal(t, int64(3), sumFor(t, sent, AttrOperation.String("create")))
	assert.Equal(t, int64(2), sumFor(t, sent, AttrOperation.String("update")))
	assert.Equal(t, int64(1), sumFor(t, sent, AttrOperation.String("delete")))

	assert.Equal(t, int64(1), sumFor(t, got["harmony_variation_image_uploads_total"],
		AttrBackend.String("s3"), AttrOutcome.String("error")))

	hist, ok := got["harmony_variation_combinations"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, 6.0, hist.DataPoints[0].Sum)
}

func TestVariationMetrics_NilSafe(t *testing.T) {
	var m *VariationMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordGeneration(ctx, 1, 0, nil)
		m.RecordBulkEdit(ctx, "clear_all", nil)
		m.RecordSubmission(ctx, 0, 0, 0, time.Second, nil)
		m.RecordImageUpload(ctx, "woocommerce", nil)
	})
}

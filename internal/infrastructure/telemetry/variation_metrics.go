package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// VariationMetrics records variation editing activity.
type VariationMetrics struct {
	generations        *Counter
	combinations       *Histogram
	variationsDropped  *Counter
	bulkEdits          *Counter
	submissions        *Counter
	variationsSent     *Counter
	submissionDuration *Histogram
	imageUploads       *Counter
}

// NewVariationMetrics registers the variation instruments on meter.
func NewVariationMetrics(meter metric.Meter) (*VariationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   VariationMetrics
		err error
	)
	if m.generations, err = NewCounter(meter,
		"harmony_variation_generations_total", "Variation regenerations by outcome", "{generation}"); err != nil {
		return nil, err
	}
	if m.combinations, err = NewHistogram(meter, HistogramOpts{
		Name:        "harmony_variation_combinations",
		Description: "Combinations produced per regeneration",
		Unit:        "{combination}",
		Boundaries:  CombinationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.variationsDropped, err = NewCounter(meter,
		"harmony_variations_dropped_total", "Variations pruned by regeneration", "{variation}"); err != nil {
		return nil, err
	}
	if m.bulkEdits, err = NewCounter(meter,
		"harmony_variation_bulk_edits_total", "Bulk edits by action and outcome", "{edit}"); err != nil {
		return nil, err
	}
	if m.submissions, err = NewCounter(meter,
		"harmony_variation_submissions_total", "Store submissions by outcome", "{submission}"); err != nil {
		return nil, err
	}
	if m.variationsSent, err = NewCounter(meter,
		"harmony_variations_submitted_total", "Variation records sent to the store by operation", "{variation}"); err != nil {
		return nil, err
	}
	if m.submissionDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "harmony_variation_submission_duration_seconds",
		Description: "Store submission round trip",
		Unit:        "s",
		Boundaries:  RemoteDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.imageUploads, err = NewCounter(meter,
		"harmony_variation_image_uploads_total", "Variation image uploads by backend and outcome", "{upload}"); err != nil {
		return nil, err
	}
	return &m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordGeneration records one regeneration
func (m *VariationMetrics) RecordGeneration(ctx context.Context, combinations, dropped int, err error) {
	if m == nil {
		return
	}
	m.generations.Inc(ctx, AttrOutcome.String(outcome(err)))
	if err != nil {
		return
	}
	m.combinations.Record(ctx, float64(combinations))
	if dropped > 0 {
		m.variationsDropped.Add(ctx, int64(dropped))
	}
}

// RecordBulkEdit records one bulk action
func (m *VariationMetrics) RecordBulkEdit(ctx context.Context, action string, err error) {
	if m == nil {
		return
	}
	m.bulkEdits.Inc(ctx, AttrBulkAction.String(action), AttrOutcome.String(outcome(err)))
}

// RecordSubmission records a batch submission and its record counts
func (m *VariationMetrics) RecordSubmission(ctx context.Context, created, updated, deleted int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.submissions.Inc(ctx, AttrOutcome.String(outcome(err)))
	m.submissionDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome(err)))
	if err != nil {
		return
	}
	m.variationsSent.Add(ctx, int64(created), AttrOperation.String("create"))
	m.variationsSent.Add(ctx, int64(updated), AttrOperation.String("update"))
	m.variationsSent.Add(ctx, int64(deleted), AttrOperation.String("delete"))
}

// RecordImageUpload records one image upload
func (m *VariationMetrics) RecordImageUpload(ctx context.Context, backend string, err error) {
	if m == nil {
		return
	}
	m.imageUploads.Inc(ctx, AttrBackend.String(backend), AttrOutcome.String(outcome(err)))
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPatternsTotal    = "patcanon.patterns.total"
	metricStageDuration    = "patcanon.stage.duration.seconds"
	metricFailuresTotal    = "patcanon.failures.total"
	metricInflightPatterns = "patcanon.inflight.patterns"

	attrStage  = "stage"
	attrStatus = "status"

	// StatusOK and StatusError are the recorded pattern outcomes.
	StatusOK    = "ok"
	StatusError = "error"
)

// stageBucketBoundaries covers 1ms to 60s; canonicalization of one
// pattern is usually sub-second, the isomorphism oracle occasionally is
// not.
var stageBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// RunMetrics holds the OTel instruments the batch runner records.
type RunMetrics struct {
	patternsTotal    metric.Int64Counter
	stageDuration    metric.Float64Histogram
	failuresTotal    metric.Int64Counter
	inflightPatterns metric.Int64UpDownCounter
}

// NewRunMetrics creates the batch-run instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		patternsTotal:    b.counter(metricPatternsTotal, "Total number of patterns processed", "{pattern}"),
		stageDuration:    b.histogram(metricStageDuration, "Pipeline stage duration in seconds", "s", stageBucketBoundaries...),
		failuresTotal:    b.counter(metricFailuresTotal, "Total number of failed pipeline stages", "{failure}"),
		inflightPatterns: b.upDownCounter(metricInflightPatterns, "Number of in-flight patterns", "{pattern}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordPattern records one finished pattern with its final status.
func (rm *RunMetrics) RecordPattern(ctx context.Context, status string) {
	rm.patternsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}

// RecordStage records the duration of one pipeline stage, counting it as
// a failure when failed is set.
func (rm *RunMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(attribute.String(attrStage, stage))

	rm.stageDuration.Record(ctx, duration.Seconds(), attrs)

	if failed {
		rm.failuresTotal.Add(ctx, 1, attrs)
	}
}

// TrackInflight increments the in-flight gauge and returns a function to
// decrement it.
func (rm *RunMetrics) TrackInflight(ctx context.Context) func() {
	rm.inflightPatterns.Add(ctx, 1)

	return func() {
		rm.inflightPatterns.Add(ctx, -1)
	}
}

// Package observe provides observability primitives for voxprep:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxprep metrics.
const meterName = "github.com/voxprep/voxprep"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per collaborator call ---

	// TranscriptionDuration tracks answer transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// QuestionGenDuration tracks interview question generation latency.
	QuestionGenDuration metric.Float64Histogram

	// EvaluationDuration tracks interview evaluation latency.
	EvaluationDuration metric.Float64Histogram

	// ComparisonDuration tracks interview comparison latency.
	ComparisonDuration metric.Float64Histogram

	// --- Counters ---

	// CollaboratorRequests counts collaborator calls. Use with attributes:
	//   attribute.String("collaborator", ...), attribute.String("status", ...)
	CollaboratorRequests metric.Int64Counter

	// CollaboratorErrors counts collaborator failures. Use with attribute:
	//   attribute.String("collaborator", ...)
	CollaboratorErrors metric.Int64Counter

	// SessionsCompleted counts interviews that reached the feedback stage.
	SessionsCompleted metric.Int64Counter

	// --- Gauges ---

	// ActiveRecordings tracks the number of in-flight answer recordings.
	ActiveRecordings metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Network
// collaborator calls span from sub-second transcriptions to multi-second
// LLM evaluations.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("voxprep.transcription.duration",
		metric.WithDescription("Latency of answer transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.QuestionGenDuration, err = m.Float64Histogram("voxprep.question_gen.duration",
		metric.WithDescription("Latency of interview question generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EvaluationDuration, err = m.Float64Histogram("voxprep.evaluation.duration",
		metric.WithDescription("Latency of interview evaluation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ComparisonDuration, err = m.Float64Histogram("voxprep.comparison.duration",
		metric.WithDescription("Latency of interview comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.CollaboratorRequests, err = m.Int64Counter("voxprep.collaborator.requests",
		metric.WithDescription("Total collaborator calls by collaborator and status."),
	); err != nil {
		return nil, err
	}
	if met.CollaboratorErrors, err = m.Int64Counter("voxprep.collaborator.errors",
		metric.WithDescription("Total collaborator failures by collaborator."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCompleted, err = m.Int64Counter("voxprep.sessions.completed",
		metric.WithDescription("Total interview sessions that reached feedback."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRecordings, err = m.Int64UpDownCounter("voxprep.active_recordings",
		metric.WithDescription("Number of in-flight answer recordings."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordCollaboratorRequest records a collaborator call with the standard
// attribute set.
func (m *Metrics) RecordCollaboratorRequest(ctx context.Context, collaborator, status string) {
	m.CollaboratorRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("collaborator", collaborator),
			attribute.String("status", status),
		),
	)
}

// RecordCollaboratorError records a collaborator failure.
func (m *Metrics) RecordCollaboratorError(ctx context.Context, collaborator string) {
	m.CollaboratorErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("collaborator", collaborator)),
	)
}

package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName identifies the pipeline's instrumentation scope.
const MeterName = "bilatcli.pipeline"

// Metrics holds the pipeline's OpenTelemetry instruments. A nil *Metrics is
// valid and records nothing, so metrics stay optional in tests.
type Metrics struct {
	stepDuration metric.Float64Histogram
	rowsLoaded   metric.Int64Counter
	technologies metric.Int64Counter
}

// NewMetrics creates the pipeline instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(MeterName)

	stepDuration, err := meter.Float64Histogram("pipeline.step.duration",
		metric.WithDescription("Duration of pipeline step executions"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step duration histogram: %w", err)
	}

	rowsLoaded, err := meter.Int64Counter("pipeline.rows.loaded",
		metric.WithDescription("Parameter rows loaded into the scenario store"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}

	technologies, err := meter.Int64Counter("pipeline.technologies",
		metric.WithDescription("Technology pipeline outcomes"))
	if err != nil {
		return nil, fmt.Errorf("failed to create technology counter: %w", err)
	}

	return &Metrics{
		stepDuration: stepDuration,
		rowsLoaded:   rowsLoaded,
		technologies: technologies,
	}, nil
}

// RecordStep records one step execution.
func (m *Metrics) RecordStep(ctx context.Context, technology, stepID string, status StepStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("technology", technology),
		attribute.String("status", string(status)),
	))
}

// RecordRows records the rows a technology contributed.
func (m *Metrics) RecordRows(ctx context.Context, technology string, rows int) {
	if m == nil {
		return
	}
	m.rowsLoaded.Add(ctx, int64(rows), metric.WithAttributes(
		attribute.String("technology", technology),
	))
}

// RecordTechnology records one technology pipeline outcome.
func (m *Metrics) RecordTechnology(ctx context.Context, technology, outcome string) {
	if m == nil {
		return
	}
	m.technologies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("technology", technology),
		attribute.String("outcome", outcome),
	))
}

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics

	entitiesCreated  metric.Int64Counter
	entitiesUpdated  metric.Int64Counter
	entitiesDeleted  metric.Int64Counter
	rowsCascaded     metric.Int64Counter
	rowsNullified    metric.Int64Counter
	labelResolutions metric.Int64Counter
	eventsPublished  metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.entitiesCreated, err = meter.Int64Counter(
		"institute.entities.created",
		metric.WithDescription("Total number of entities created"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	m.entitiesUpdated, err = meter.Int64Counter(
		"institute.entities.updated",
		metric.WithDescription("Total number of entities updated"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	m.entitiesDeleted, err = meter.Int64Counter(
		"institute.entities.deleted",
		metric.WithDescription("Total number of entities deleted by request"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	m.rowsCascaded, err = meter.Int64Counter(
		"institute.integrity.cascaded",
		metric.WithDescription("Dependent rows removed by cascading deletes"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	m.rowsNullified, err = meter.Int64Counter(
		"institute.integrity.nullified",
		metric.WithDescription("Dependent references cleared by deletes"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	m.labelResolutions, err = meter.Int64Counter(
		"institute.labels.resolved",
		metric.WithDescription("Label to identity resolutions by outcome"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"institute.events.published",
		metric.WithDescription("Change events handed to the publisher"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func entityAttr(entity string) metric.AddOption {
	return metric.WithAttributes(attribute.String("entity", entity))
}

func (m *Metrics) RecordCreated(ctx context.Context, entity string) {
	if m != nil && m.entitiesCreated != nil {
		m.entitiesCreated.Add(ctx, 1, entityAttr(entity))
	}
}

func (m *Metrics) RecordUpdated(ctx context.Context, entity string) {
	if m != nil && m.entitiesUpdated != nil {
		m.entitiesUpdated.Add(ctx, 1, entityAttr(entity))
	}
}

func (m *Metrics) RecordDeleted(ctx context.Context, entity string) {
	if m != nil && m.entitiesDeleted != nil {
		m.entitiesDeleted.Add(ctx, 1, entityAttr(entity))
	}
}

func (m *Metrics) RecordCascaded(ctx context.Context, table string, rows int) {
	if m != nil && m.rowsCascaded != nil && rows > 0 {
		m.rowsCascaded.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
	}
}

func (m *Metrics) RecordNullified(ctx context.Context, table string, rows int) {
	if m != nil && m.rowsNullified != nil && rows > 0 {
		m.rowsNullified.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
	}
}

func (m *Metrics) RecordResolution(ctx context.Context, entity, outcome string) {
	if m != nil && m.labelResolutions != nil {
		m.labelResolutions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("outcome", outcome),
		))
	}
}

func (m *Metrics) RecordEventPublished(ctx context.Context, action string, err error) {
	if m != nil && m.eventsPublished != nil {
		m.eventsPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.Bool("error", err != nil),
		))
	}
}

// DB returns the database collector; safe on a nil receiver.
func (m *Metrics) DB() *DatabaseMetrics {
	if m == nil {
		return nil
	}
	return m.Database
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}}
}

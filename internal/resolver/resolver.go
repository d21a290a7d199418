// Package resolver maps human-readable labels to stable identities and back.
// It never guesses: a label matching several rows is an error carrying the
// candidate identities.
package resolver

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/metrics"
	"institute-service/internal/schema"

	"github.com/uptrace/bun"
)

type Resolver struct {
	schema  *schema.Schema
	metrics *metrics.Metrics
}

func New(s *schema.Schema, m *metrics.Metrics) *Resolver {
	return &Resolver{schema: s, metrics: m}
}

func (r *Resolver) labelled(t schema.EntityType) (schema.Entity, error) {
	entity, ok := r.schema.Entity(t)
	if !ok {
		return schema.Entity{}, apperrors.Validation(string(t), "", "unknown entity type")
	}
	if entity.LabelColumn == "" {
		return schema.Entity{}, apperrors.Validation(string(t), "label", "entity has no label")
	}
	return entity, nil
}

// Resolve returns the identity of the single row of type t whose label is
// exactly label. Matching is exact and case-sensitive; callers normalise
// input before asking.
func (r *Resolver) Resolve(ctx context.Context, idb bun.IDB, t schema.EntityType, label string) (int64, error) {
	entity, err := r.labelled(t)
	if err != nil {
		return 0, err
	}
	if label == "" {
		return 0, apperrors.Validation(string(t), "label", "is required")
	}

	start := time.Now()
	var ids []int64
	err = idb.NewSelect().
		Table(entity.Table).
		Column("id").
		Where("? = ?", bun.Ident(entity.LabelColumn), label).
		OrderExpr("id ASC").
		Scan(ctx, &ids)
	r.metrics.DB().RecordQuery(ctx, "select", entity.Table, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	switch len(ids) {
	case 0:
		r.metrics.RecordResolution(ctx, string(t), "not_found")
		return 0, apperrors.LabelNotFound(string(t), label)
	case 1:
		r.metrics.RecordResolution(ctx, string(t), "resolved")
		return ids[0], nil
	default:
		r.metrics.RecordResolution(ctx, string(t), "ambiguous")
		return 0, apperrors.Ambiguous(string(t), label, ids)
	}
}

// LabelOf returns the current label of the row with the given identity.
func (r *Resolver) LabelOf(ctx context.Context, idb bun.IDB, t schema.EntityType, id int64) (string, error) {
	entity, err := r.labelled(t)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var label string
	err = idb.NewSelect().
		Table(entity.Table).
		ColumnExpr("?", bun.Ident(entity.LabelColumn)).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx, &label)
	r.metrics.DB().RecordQuery(ctx, "select", entity.Table, time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NotFound(string(t), id)
	}
	if err != nil {
		return "", err
	}
	return label, nil
}

// Exists reports whether a row of type t with the identity exists.
func (r *Resolver) Exists(ctx context.Context, idb bun.IDB, t schema.EntityType, id int64) (bool, error) {
	entity, ok := r.schema.Entity(t)
	if !ok {
		return false, apperrors.Validation(string(t), "", "unknown entity type")
	}

	start := time.Now()
	n, err := idb.NewSelect().
		Table(entity.Table).
		Where("id = ?", id).
		Count(ctx)
	r.metrics.DB().RecordQuery(ctx, "count", entity.Table, time.Since(start), err)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

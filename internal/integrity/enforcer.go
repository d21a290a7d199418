// Package integrity applies the delete policy of every relationship when a
// row is removed. Planning only reads; nothing is written unless the whole
// plan is admissible, and everything it writes goes through the caller's
// transaction.
package integrity

import (
	"context"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/metrics"
	"institute-service/internal/schema"

	"github.com/uptrace/bun"
)

type Enforcer struct {
	schema  *schema.Schema
	metrics *metrics.Metrics
}

func New(s *schema.Schema, m *metrics.Metrics) *Enforcer {
	return &Enforcer{schema: s, metrics: m}
}

// Delete removes the row and applies every policy that targets it. idb
// should be the transaction of the enclosing unit of work.
func (e *Enforcer) Delete(ctx context.Context, idb bun.IDB, t schema.EntityType, id int64) (*Report, error) {
	plan, err := e.Plan(ctx, idb, t, id)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, idb, plan)
}

// Plan checks every relationship targeting the row. A RESTRICT relation
// with dependents aborts the plan with a restricted-delete error.
func (e *Enforcer) Plan(ctx context.Context, idb bun.IDB, t schema.EntityType, id int64) (*Plan, error) {
	plan := &Plan{Entity: t, ID: id, State: Requested}

	entity, ok := e.schema.Entity(t)
	if !ok {
		plan.State = Aborted
		return plan, apperrors.Validation(string(t), "", "unknown entity type")
	}

	plan.State = Checking

	found, err := e.dependents(ctx, idb, entity.Table, "id", []int64{id})
	if err != nil {
		plan.State = Aborted
		return plan, err
	}
	if len(found) == 0 {
		plan.State = Aborted
		return plan, apperrors.NotFound(string(t), id)
	}

	if err := e.visit(ctx, idb, plan, t, []int64{id}); err != nil {
		plan.State = Aborted
		return plan, err
	}

	plan.Steps = append(plan.Steps, Step{Action: Remove, Entity: t, Table: entity.Table, IDs: []int64{id}})
	return plan, nil
}

func (e *Enforcer) visit(ctx context.Context, idb bun.IDB, plan *Plan, t schema.EntityType, ids []int64) error {
	for _, rel := range e.schema.RelationsTargeting(t) {
		owner, _ := e.schema.Entity(rel.Owner)

		deps, err := e.dependents(ctx, idb, owner.Table, rel.Column, ids)
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			continue
		}

		switch rel.OnDelete {
		case schema.Restrict:
			return apperrors.Restricted(string(t), string(rel.Owner), deps)
		case schema.Nullify:
			plan.Steps = append(plan.Steps, Step{
				Action: Clear,
				Entity: rel.Owner,
				Table:  owner.Table,
				Column: rel.Column,
				IDs:    deps,
			})
		case schema.Cascade:
			if err := e.visit(ctx, idb, plan, rel.Owner, deps); err != nil {
				return err
			}
			plan.Steps = append(plan.Steps, Step{
				Action: Remove,
				Entity: rel.Owner,
				Table:  owner.Table,
				IDs:    deps,
			})
		}
	}
	return nil
}

func (e *Enforcer) dependents(ctx context.Context, idb bun.IDB, table, column string, ids []int64) ([]int64, error) {
	start := time.Now()
	var deps []int64
	err := idb.NewSelect().
		Table(table).
		Column("id").
		Where("? IN (?)", bun.Ident(column), bun.In(ids)).
		OrderExpr("id ASC").
		Scan(ctx, &deps)
	e.metrics.DB().RecordQuery(ctx, "select", table, time.Since(start), err)
	return deps, err
}

// Apply executes a checked plan. Callers must not apply an aborted plan.
func (e *Enforcer) Apply(ctx context.Context, idb bun.IDB, plan *Plan) (*Report, error) {
	if plan.State != Checking {
		return nil, apperrors.Validation(string(plan.Entity), "", "plan is %s", plan.State)
	}
	plan.State = Applying
	report := newReport(plan.Entity, plan.ID)

	for _, step := range plan.clears() {
		start := time.Now()
		res, err := idb.NewUpdate().
			Table(step.Table).
			Set("? = NULL", bun.Ident(step.Column)).
			Where("id IN (?)", bun.In(step.IDs)).
			Exec(ctx)
		e.metrics.DB().RecordQuery(ctx, "update", step.Table, time.Since(start), err)
		if err != nil {
			plan.State = Aborted
			return nil, err
		}
		n, _ := res.RowsAffected()
		report.Nullified[step.Table+"."+step.Column] += int(n)
		e.metrics.RecordNullified(ctx, step.Table, int(n))
	}

	removes := plan.removes()
	for i, step := range removes {
		start := time.Now()
		res, err := idb.NewDelete().
			Table(step.Table).
			Where("id IN (?)", bun.In(step.IDs)).
			Exec(ctx)
		e.metrics.DB().RecordQuery(ctx, "delete", step.Table, time.Since(start), err)
		if err != nil {
			plan.State = Aborted
			return nil, err
		}
		n, _ := res.RowsAffected()

		if i == len(removes)-1 {
			if n == 0 {
				plan.State = Aborted
				return nil, apperrors.NotFound(string(plan.Entity), plan.ID)
			}
			continue
		}
		report.Cascaded[step.Table] += int(n)
		e.metrics.RecordCascaded(ctx, step.Table, int(n))
	}

	plan.State = Committed
	return report, nil
}

// Package records is the single entry point to the institute records: it
// checks attribute maps against the schema, dispatches to the entity
// services and announces committed changes.
package records

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/course"
	"institute-service/internal/db"
	"institute-service/internal/events"
	"institute-service/internal/instructor"
	"institute-service/internal/integrity"
	"institute-service/internal/listing"
	"institute-service/internal/metrics"
	"institute-service/internal/resolver"
	"institute-service/internal/result"
	"institute-service/internal/schema"
	"institute-service/internal/store"
	"institute-service/internal/student"

	"github.com/uptrace/bun"
)

type ListOptions = listing.Options

// Reference is a relationship as shown to callers: the stored identity and
// the current label of the row it points at.
type Reference struct {
	ID    *int64  `json:"id"`
	Label *string `json:"label"`
}

type View struct {
	Type       schema.EntityType    `json:"type"`
	ID         int64                `json:"id"`
	Attributes map[string]any       `json:"attributes"`
	References map[string]Reference `json:"references,omitempty"`
}

type Records struct {
	schema      *schema.Schema
	store       *store.Store
	resolver    *resolver.Resolver
	courses     course.Service
	instructors instructor.Service
	students    student.Service
	results     result.Service
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func New(st *store.Store, s *schema.Schema, publisher events.Publisher, logger *slog.Logger) *Records {
	m := st.Metrics()
	res := resolver.New(s, m)
	enforcer := integrity.New(s, m)

	if publisher == nil {
		publisher = events.Noop()
	}

	return &Records{
		schema:      s,
		store:       st,
		resolver:    res,
		courses:     course.NewService(st, course.NewRepository(m), enforcer),
		instructors: instructor.NewService(st, instructor.NewRepository(m), enforcer),
		students:    student.NewService(st, student.NewRepository(m), s, res, enforcer),
		results:     result.NewService(st, result.NewRepository(m), s, res, enforcer),
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

// Tables lists the entity models in the form migrations expect.
func Tables() []db.Table {
	return []db.Table{
		{Entity: schema.Course, Model: (*course.Course)(nil)},
		{Entity: schema.Instructor, Model: (*instructor.Instructor)(nil)},
		{Entity: schema.Student, Model: (*student.Student)(nil)},
		{Entity: schema.Result, Model: (*result.Result)(nil)},
	}
}

// Migrate creates the entity tables of s plus any extra models.
func Migrate(ctx context.Context, idb bun.IDB, s *schema.Schema, extra ...any) error {
	return db.RunMigrations(ctx, idb, s, Tables(), extra...)
}

func (r *Records) CreateEntity(ctx context.Context, t schema.EntityType, attrs Attributes) (int64, error) {
	p, err := prepare(r.schema, t, attrs, true)
	if err != nil {
		return 0, err
	}

	var id int64
	switch t {
	case schema.Course:
		in, err := courseInput(p)
		if err != nil {
			return 0, err
		}
		id, err = r.courses.Create(ctx, in)
		if err != nil {
			return 0, err
		}
	case schema.Instructor:
		var in instructor.Input
		if err := decode(string(t), p.scalars, &in); err != nil {
			return 0, err
		}
		if id, err = r.instructors.Create(ctx, in); err != nil {
			return 0, err
		}
	case schema.Student:
		in, err := studentInput(p)
		if err != nil {
			return 0, err
		}
		if id, err = r.students.Create(ctx, in); err != nil {
			return 0, err
		}
	case schema.Result:
		in, err := resultInput(p)
		if err != nil {
			return 0, err
		}
		if id, err = r.results.Create(ctx, in); err != nil {
			return 0, err
		}
	default:
		return 0, apperrors.Validation(string(t), "", "unknown entity type")
	}

	r.metrics.RecordCreated(ctx, string(t))
	r.logger.InfoContext(ctx, "entity created", "entity", t, "id", id)
	r.publish(ctx, events.Change{Entity: t, ID: id, Action: events.Created})
	return id, nil
}

func (r *Records) ReadEntity(ctx context.Context, t schema.EntityType, id int64) (*View, error) {
	switch t {
	case schema.Course:
		c, err := r.courses.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return courseView(c), nil
	case schema.Instructor:
		i, err := r.instructors.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return instructorView(i), nil
	case schema.Student:
		s, err := r.students.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return studentView(s), nil
	case schema.Result:
		res, err := r.results.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return resultView(res), nil
	}
	return nil, apperrors.Validation(string(t), "", "unknown entity type")
}

func (r *Records) ListEntities(ctx context.Context, t schema.EntityType, opts ListOptions) ([]View, error) {
	views := []View{}
	switch t {
	case schema.Course:
		rows, err := r.courses.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			views = append(views, *courseView(&rows[i]))
		}
	case schema.Instructor:
		rows, err := r.instructors.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			views = append(views, *instructorView(&rows[i]))
		}
	case schema.Student:
		rows, err := r.students.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			views = append(views, *studentView(&rows[i]))
		}
	case schema.Result:
		rows, err := r.results.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			views = append(views, *resultView(&rows[i]))
		}
	default:
		return nil, apperrors.Validation(string(t), "", "unknown entity type")
	}
	return views, nil
}

// UpdateEntity changes only the supplied attributes; the identity never
// changes.
func (r *Records) UpdateEntity(ctx context.Context, t schema.EntityType, id int64, attrs Attributes) error {
	p, err := prepare(r.schema, t, attrs, false)
	if err != nil {
		return err
	}

	switch t {
	case schema.Course:
		in, err := courseInput(p)
		if err != nil {
			return err
		}
		err = r.courses.Update(ctx, id, in)
		if err != nil {
			return err
		}
	case schema.Instructor:
		var in instructor.Input
		if err := decode(string(t), p.scalars, &in); err != nil {
			return err
		}
		if err := r.instructors.Update(ctx, id, in); err != nil {
			return err
		}
	case schema.Student:
		in, err := studentInput(p)
		if err != nil {
			return err
		}
		if err := r.students.Update(ctx, id, in); err != nil {
			return err
		}
	case schema.Result:
		in, err := resultInput(p)
		if err != nil {
			return err
		}
		if err := r.results.Update(ctx, id, in); err != nil {
			return err
		}
	default:
		return apperrors.Validation(string(t), "", "unknown entity type")
	}

	r.metrics.RecordUpdated(ctx, string(t))
	r.logger.InfoContext(ctx, "entity updated", "entity", t, "id", id)
	r.publish(ctx, events.Change{Entity: t, ID: id, Action: events.Updated})
	return nil
}

// DeleteEntity removes the row and applies every delete policy that
// targets it, all in one unit of work.
func (r *Records) DeleteEntity(ctx context.Context, t schema.EntityType, id int64) (*integrity.Report, error) {
	var (
		report *integrity.Report
		err    error
	)
	switch t {
	case schema.Course:
		report, err = r.courses.Delete(ctx, id)
	case schema.Instructor:
		report, err = r.instructors.Delete(ctx, id)
	case schema.Student:
		report, err = r.students.Delete(ctx, id)
	case schema.Result:
		report, err = r.results.Delete(ctx, id)
	default:
		return nil, apperrors.Validation(string(t), "", "unknown entity type")
	}
	if err != nil {
		return nil, err
	}

	r.metrics.RecordDeleted(ctx, string(t))
	r.logger.InfoContext(ctx, "entity deleted",
		"entity", t,
		"id", id,
		"nullified", report.Nullified,
		"cascaded", report.Cascaded,
	)
	r.publish(ctx, events.Change{Entity: t, ID: id, Action: events.Deleted, Integrity: report})
	return report, nil
}

// ResolveLabel returns the identity of the single row labelled label.
// Surrounding whitespace is ignored, as it is when labels are stored.
func (r *Records) ResolveLabel(ctx context.Context, t schema.EntityType, label string) (int64, error) {
	var id int64
	err := r.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		id, err = r.resolver.Resolve(ctx, idb, t, strings.TrimSpace(label))
		return err
	})
	return id, err
}

func (r *Records) LabelOf(ctx context.Context, t schema.EntityType, id int64) (string, error) {
	var label string
	err := r.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		label, err = r.resolver.LabelOf(ctx, idb, t, id)
		return err
	})
	return label, err
}

func (r *Records) publish(ctx context.Context, change events.Change) {
	change.OccurredAt = time.Now().UTC()
	err := r.publisher.Publish(ctx, change)
	r.metrics.RecordEventPublished(ctx, string(change.Action), err)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to publish change",
			"entity", change.Entity,
			"id", change.ID,
			"action", change.Action,
			"error", err,
		)
	}
}

package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/listing"
	"institute-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, idb bun.IDB, student *Student) error
	GetByID(ctx context.Context, idb bun.IDB, id int64) (*Student, error)
	List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Student, error)
	Update(ctx context.Context, idb bun.IDB, student *Student) error
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, student *Student) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(student).Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "insert", "students", time.Since(start), err)
	return err
}

func withLabels(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("s.*").
		ColumnExpr("c.name AS course_name").
		ColumnExpr("i.name AS instructor_name").
		Join("LEFT JOIN courses AS c ON c.id = s.course_id").
		Join("LEFT JOIN instructors AS i ON i.id = s.instructor_id")
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int64) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := withLabels(idb.NewSelect().Model(student)).
		Where("s.id = ?", id).
		Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "students", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("student", id)
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (r *repository) List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Student, error) {
	start := time.Now()
	students := []Student{}
	q := withLabels(idb.NewSelect().Model(&students))
	if opts.CourseID != nil {
		q = q.Where("s.course_id = ?", *opts.CourseID)
	}
	if opts.InstructorID != nil {
		q = q.Where("s.instructor_id = ?", *opts.InstructorID)
	}
	err := listing.Apply(q, "s.id", "s.name", opts).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "students", time.Since(start), err)
	return students, err
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, student *Student) error {
	start := time.Now()
	res, err := idb.NewUpdate().Model(student).WherePK().Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "update", "students", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("student", student.ID)
	}
	return nil
}

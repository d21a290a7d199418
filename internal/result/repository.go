package result

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
	Create(ctx context.Context, idb bun.IDB, result *Result) error
	GetByID(ctx context.Context, idb bun.IDB, id int64) (*Result, error)
	List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Result, error)
	Update(ctx context.Context, idb bun.IDB, result *Result) error
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, result *Result) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(result).Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "insert", "results", time.Since(start), err)
	return err
}

func withLabels(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("r.*").
		ColumnExpr("st.name AS student_name").
		ColumnExpr("c.name AS course_name").
		ColumnExpr("i.name AS instructor_name").
		Join("LEFT JOIN students AS st ON st.id = r.student_id").
		Join("LEFT JOIN courses AS c ON c.id = r.course_id").
		Join("LEFT JOIN instructors AS i ON i.id = r.instructor_id")
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int64) (*Result, error) {
	start := time.Now()
	result := new(Result)
	err := withLabels(idb.NewSelect().Model(result)).
		Where("r.id = ?", id).
		Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "results", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("result", id)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List searches and orders by the student's name; results have no label of
// their own.
func (r *repository) List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Result, error) {
	start := time.Now()
	results := []Result{}
	q := withLabels(idb.NewSelect().Model(&results))
	if opts.StudentID != nil {
		q = q.Where("r.student_id = ?", *opts.StudentID)
	}
	if opts.CourseID != nil {
		q = q.Where("r.course_id = ?", *opts.CourseID)
	}
	if opts.InstructorID != nil {
		q = q.Where("r.instructor_id = ?", *opts.InstructorID)
	}
	err := listing.Apply(q, "r.id", "st.name", opts).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "results", time.Since(start), err)
	return results, err
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, result *Result) error {
	start := time.Now()
	res, err := idb.NewUpdate().Model(result).WherePK().Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "update", "results", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("result", result.ID)
	}
	return nil
}

package course

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
	Create(ctx context.Context, idb bun.IDB, course *Course) error
	GetByID(ctx context.Context, idb bun.IDB, id int64) (*Course, error)
	List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Course, error)
	Update(ctx context.Context, idb bun.IDB, course *Course) error
	NameTaken(ctx context.Context, idb bun.IDB, name string, exceptID int64) (bool, error)
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, course *Course) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(course).Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "insert", "courses", time.Since(start), err)
	return err
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int64) (*Course, error) {
	start := time.Now()
	course := new(Course)
	err := idb.NewSelect().Model(course).Where("c.id = ?", id).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "courses", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("course", id)
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (r *repository) List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Course, error) {
	start := time.Now()
	courses := []Course{}
	q := idb.NewSelect().Model(&courses)
	err := listing.Apply(q, "c.id", "c.name", opts).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "courses", time.Since(start), err)
	return courses, err
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, course *Course) error {
	start := time.Now()
	res, err := idb.NewUpdate().Model(course).WherePK().Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "update", "courses", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("course", course.ID)
	}
	return nil
}

func (r *repository) NameTaken(ctx context.Context, idb bun.IDB, name string, exceptID int64) (bool, error) {
	start := time.Now()
	n, err := idb.NewSelect().
		Model((*Course)(nil)).
		Where("c.name = ?", name).
		Where("c.id <> ?", exceptID).
		Count(ctx)
	r.metrics.DB().RecordQuery(ctx, "count", "courses", time.Since(start), err)
	return n > 0, err
}

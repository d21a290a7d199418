package instructor

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
	Create(ctx context.Context, idb bun.IDB, instructor *Instructor) error
	GetByID(ctx context.Context, idb bun.IDB, id int64) (*Instructor, error)
	List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Instructor, error)
	Update(ctx context.Context, idb bun.IDB, instructor *Instructor) error
}

type repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) Repository {
	return &repository{metrics: m}
}

func (r *repository) Create(ctx context.Context, idb bun.IDB, instructor *Instructor) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(instructor).Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "insert", "instructors", time.Since(start), err)
	return err
}

func (r *repository) GetByID(ctx context.Context, idb bun.IDB, id int64) (*Instructor, error) {
	start := time.Now()
	instructor := new(Instructor)
	err := idb.NewSelect().Model(instructor).Where("i.id = ?", id).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "instructors", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("instructor", id)
	}
	if err != nil {
		return nil, err
	}
	return instructor, nil
}

func (r *repository) List(ctx context.Context, idb bun.IDB, opts listing.Options) ([]Instructor, error) {
	start := time.Now()
	instructors := []Instructor{}
	q := idb.NewSelect().Model(&instructors)
	err := listing.Apply(q, "i.id", "i.name", opts).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "instructors", time.Since(start), err)
	return instructors, err
}

func (r *repository) Update(ctx context.Context, idb bun.IDB, instructor *Instructor) error {
	start := time.Now()
	res, err := idb.NewUpdate().Model(instructor).WherePK().Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "update", "instructors", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("instructor", instructor.ID)
	}
	return nil
}

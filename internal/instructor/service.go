package instructor

import (
	"context"
	"strings"

	"institute-service/internal/apperrors"
	"institute-service/internal/db"
	"institute-service/internal/integrity"
	"institute-service/internal/listing"
	"institute-service/internal/schema"
	"institute-service/internal/store"
	"institute-service/internal/validation"

	"github.com/uptrace/bun"
)

const entity = string(schema.Instructor)

type Service interface {
	Create(ctx context.Context, in Input) (int64, error)
	Get(ctx context.Context, id int64) (*Instructor, error)
	List(ctx context.Context, opts listing.Options) ([]Instructor, error)
	Update(ctx context.Context, id int64, in Input) error
	Delete(ctx context.Context, id int64) (*integrity.Report, error)
}

type service struct {
	store    *store.Store
	repo     Repository
	enforcer *integrity.Enforcer
}

func NewService(st *store.Store, repo Repository, enforcer *integrity.Enforcer) Service {
	return &service{
		store:    st,
		repo:     repo,
		enforcer: enforcer,
	}
}

func (s *service) Create(ctx context.Context, in Input) (int64, error) {
	if in.Name == nil {
		return 0, apperrors.Validation(entity, "name", "is required")
	}
	if err := validation.Struct(entity, in); err != nil {
		return 0, err
	}

	instructor := &Instructor{}
	in.apply(instructor)
	instructor.Name = strings.TrimSpace(instructor.Name)

	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		return db.TranslateError(s.repo.Create(ctx, tx, instructor), entity)
	})
	if err != nil {
		return 0, err
	}
	return instructor.ID, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Instructor, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var instructor *Instructor
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		instructor, err = s.repo.GetByID(ctx, idb, id)
		return err
	})
	return instructor, err
}

func (s *service) List(ctx context.Context, opts listing.Options) ([]Instructor, error) {
	if err := opts.Check(entity); err != nil {
		return nil, err
	}
	var instructors []Instructor
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		instructors, err = s.repo.List(ctx, idb, opts)
		return err
	})
	return instructors, err
}

func (s *service) Update(ctx context.Context, id int64, in Input) error {
	if id <= 0 {
		return apperrors.NotFound(entity, id)
	}
	if err := validation.Struct(entity, in); err != nil {
		return err
	}

	return s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		instructor, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		in.apply(instructor)
		instructor.Name = strings.TrimSpace(instructor.Name)
		return db.TranslateError(s.repo.Update(ctx, tx, instructor), entity)
	})
}

// Delete removes the instructor; students and results taught by them keep
// their rows with the instructor reference cleared.
func (s *service) Delete(ctx context.Context, id int64) (*integrity.Report, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var report *integrity.Report
	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		report, err = s.enforcer.Delete(ctx, tx, schema.Instructor, id)
		return err
	})
	return report, err
}

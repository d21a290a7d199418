package course

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

const entity = string(schema.Course)

type Service interface {
	Create(ctx context.Context, in Input) (int64, error)
	Get(ctx context.Context, id int64) (*Course, error)
	List(ctx context.Context, opts listing.Options) ([]Course, error)
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
	if in.Duration == nil {
		return 0, apperrors.Validation(entity, "duration", "is required")
	}
	if err := validation.Struct(entity, in); err != nil {
		return 0, err
	}

	course := &Course{}
	in.apply(course)
	course.Name = strings.TrimSpace(course.Name)

	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.checkName(ctx, tx, course.Name, 0); err != nil {
			return err
		}
		return db.TranslateError(s.repo.Create(ctx, tx, course), entity)
	})
	if err != nil {
		return 0, err
	}
	return course.ID, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Course, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var course *Course
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		course, err = s.repo.GetByID(ctx, idb, id)
		return err
	})
	return course, err
}

func (s *service) List(ctx context.Context, opts listing.Options) ([]Course, error) {
	if err := opts.Check(entity); err != nil {
		return nil, err
	}
	var courses []Course
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		courses, err = s.repo.List(ctx, idb, opts)
		return err
	})
	return courses, err
}

func (s *service) Update(ctx context.Context, id int64, in Input) error {
	if id <= 0 {
		return apperrors.NotFound(entity, id)
	}
	if err := validation.Struct(entity, in); err != nil {
		return err
	}

	return s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		course, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		in.apply(course)
		course.Name = strings.TrimSpace(course.Name)

		if in.Name != nil {
			if err := s.checkName(ctx, tx, course.Name, id); err != nil {
				return err
			}
		}
		return db.TranslateError(s.repo.Update(ctx, tx, course), entity)
	})
}

func (s *service) Delete(ctx context.Context, id int64) (*integrity.Report, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var report *integrity.Report
	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		report, err = s.enforcer.Delete(ctx, tx, schema.Course, id)
		return err
	})
	return report, err
}

func (s *service) checkName(ctx context.Context, idb bun.IDB, name string, exceptID int64) error {
	taken, err := s.repo.NameTaken(ctx, idb, name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.Uniqueness(entity, "name", nil)
	}
	return nil
}

package result

import (
	"context"
	"strings"

	"institute-service/internal/apperrors"
	"institute-service/internal/db"
	"institute-service/internal/integrity"
	"institute-service/internal/listing"
	"institute-service/internal/resolver"
	"institute-service/internal/schema"
	"institute-service/internal/store"
	"institute-service/internal/validation"

	"github.com/uptrace/bun"
)

const entity = string(schema.Result)

type Service interface {
	Create(ctx context.Context, in Input) (int64, error)
	Get(ctx context.Context, id int64) (*Result, error)
	List(ctx context.Context, opts listing.Options) ([]Result, error)
	Update(ctx context.Context, id int64, in Input) error
	Delete(ctx context.Context, id int64) (*integrity.Report, error)
}

type service struct {
	store    *store.Store
	repo     Repository
	schema   *schema.Schema
	resolver *resolver.Resolver
	enforcer *integrity.Enforcer
}

func NewService(st *store.Store, repo Repository, s *schema.Schema, res *resolver.Resolver, enforcer *integrity.Enforcer) Service {
	return &service{
		store:    st,
		repo:     repo,
		schema:   s,
		resolver: res,
		enforcer: enforcer,
	}
}

func (s *service) Create(ctx context.Context, in Input) (int64, error) {
	if in.Student == nil || in.Student.IsZero() {
		return 0, apperrors.Validation(entity, "student", "is required")
	}
	if in.Grade == nil {
		return 0, apperrors.Validation(entity, "grade", "is required")
	}
	if err := validation.Struct(entity, in); err != nil {
		return 0, err
	}

	result := &Result{Grade: strings.TrimSpace(*in.Grade)}

	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.bind(ctx, tx, result, in); err != nil {
			return err
		}
		return db.TranslateError(s.repo.Create(ctx, tx, result), entity)
	})
	if err != nil {
		return 0, err
	}
	return result.ID, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Result, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var result *Result
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		result, err = s.repo.GetByID(ctx, idb, id)
		return err
	})
	return result, err
}

func (s *service) List(ctx context.Context, opts listing.Options) ([]Result, error) {
	if err := opts.Check(entity, "student_id", "course_id", "instructor_id"); err != nil {
		return nil, err
	}
	var results []Result
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		results, err = s.repo.List(ctx, idb, opts)
		return err
	})
	return results, err
}

func (s *service) Update(ctx context.Context, id int64, in Input) error {
	if id <= 0 {
		return apperrors.NotFound(entity, id)
	}
	if err := validation.Struct(entity, in); err != nil {
		return err
	}

	return s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		result, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Grade != nil {
			result.Grade = strings.TrimSpace(*in.Grade)
		}
		if err := s.bind(ctx, tx, result, in); err != nil {
			return err
		}
		return db.TranslateError(s.repo.Update(ctx, tx, result), entity)
	})
}

func (s *service) Delete(ctx context.Context, id int64) (*integrity.Report, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var report *integrity.Report
	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		report, err = s.enforcer.Delete(ctx, tx, schema.Result, id)
		return err
	})
	return report, err
}

func (s *service) bind(ctx context.Context, idb bun.IDB, result *Result, in Input) error {
	if in.Student != nil {
		rel, _ := s.schema.Relation(schema.Result, "student")
		id, err := s.resolver.Bind(ctx, idb, rel, *in.Student)
		if err != nil {
			return err
		}
		result.StudentID = *id
	}
	if in.Course != nil {
		rel, _ := s.schema.Relation(schema.Result, "course")
		id, err := s.resolver.Bind(ctx, idb, rel, *in.Course)
		if err != nil {
			return err
		}
		result.CourseID = id
	}
	if in.Instructor != nil {
		rel, _ := s.schema.Relation(schema.Result, "instructor")
		id, err := s.resolver.Bind(ctx, idb, rel, *in.Instructor)
		if err != nil {
			return err
		}
		result.InstructorID = id
	}
	return nil
}

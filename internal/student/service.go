package student

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

const entity = string(schema.Student)

type Service interface {
	Create(ctx context.Context, in Input) (int64, error)
	Get(ctx context.Context, id int64) (*Student, error)
	List(ctx context.Context, opts listing.Options) ([]Student, error)
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
	if in.Name == nil {
		return 0, apperrors.Validation(entity, "name", "is required")
	}
	if err := validation.Struct(entity, in); err != nil {
		return 0, err
	}

	student := &Student{}
	in.apply(student)
	student.Name = strings.TrimSpace(student.Name)

	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.bind(ctx, tx, student, in); err != nil {
			return err
		}
		return db.TranslateError(s.repo.Create(ctx, tx, student), entity)
	})
	if err != nil {
		return 0, err
	}
	return student.ID, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Student, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var student *Student
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		student, err = s.repo.GetByID(ctx, idb, id)
		return err
	})
	return student, err
}

func (s *service) List(ctx context.Context, opts listing.Options) ([]Student, error) {
	if err := opts.Check(entity, "course_id", "instructor_id"); err != nil {
		return nil, err
	}
	var students []Student
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		students, err = s.repo.List(ctx, idb, opts)
		return err
	})
	return students, err
}

func (s *service) Update(ctx context.Context, id int64, in Input) error {
	if id <= 0 {
		return apperrors.NotFound(entity, id)
	}
	if err := validation.Struct(entity, in); err != nil {
		return err
	}

	return s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		student, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		in.apply(student)
		student.Name = strings.TrimSpace(student.Name)

		if err := s.bind(ctx, tx, student, in); err != nil {
			return err
		}
		return db.TranslateError(s.repo.Update(ctx, tx, student), entity)
	})
}

// Delete removes the student together with their results.
func (s *service) Delete(ctx context.Context, id int64) (*integrity.Report, error) {
	if id <= 0 {
		return nil, apperrors.NotFound(entity, id)
	}
	var report *integrity.Report
	err := s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		report, err = s.enforcer.Delete(ctx, tx, schema.Student, id)
		return err
	})
	return report, err
}

func (s *service) bind(ctx context.Context, idb bun.IDB, student *Student, in Input) error {
	if in.Course != nil {
		rel, _ := s.schema.Relation(schema.Student, "course")
		id, err := s.resolver.Bind(ctx, idb, rel, *in.Course)
		if err != nil {
			return err
		}
		student.CourseID = id
	}
	if in.Instructor != nil {
		rel, _ := s.schema.Relation(schema.Student, "instructor")
		id, err := s.resolver.Bind(ctx, idb, rel, *in.Instructor)
		if err != nil {
			return err
		}
		student.InstructorID = id
	}
	return nil
}

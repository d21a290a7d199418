package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository struct {
	metrics *metrics.Metrics
}

func NewRepository(m *metrics.Metrics) *Repository {
	return &Repository{metrics: m}
}

func (r *Repository) Create(ctx context.Context, idb bun.IDB, user *User) error {
	start := time.Now()
	_, err := idb.NewInsert().Model(user).Exec(ctx)
	r.metrics.DB().RecordQuery(ctx, "insert", "users", time.Since(start), err)
	return err
}

func (r *Repository) GetByEmail(ctx context.Context, idb bun.IDB, email string) (*User, error) {
	start := time.Now()
	user := new(User)
	err := idb.NewSelect().Model(user).Where("u.email = ?", email).Scan(ctx)
	r.metrics.DB().RecordQuery(ctx, "select", "users", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.Error{Kind: apperrors.KindNotFound, Entity: "user", Field: "email"}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

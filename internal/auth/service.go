package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"institute-service/internal/apperrors"
	"institute-service/internal/db"
	"institute-service/internal/store"
	"institute-service/internal/validation"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Service struct {
	store  *store.Store
	repo   *Repository
	tokens *TokenIssuer
}

func NewService(st *store.Store, repo *Repository, tokens *TokenIssuer) *Service {
	return &Service{
		store:  st,
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct("user", req); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}

	err = s.store.Write(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.GetByEmail(ctx, tx, user.Email); err == nil {
			return apperrors.Uniqueness("user", "email", ErrEmailExists)
		} else if apperrors.KindOf(err) != apperrors.KindNotFound {
			return err
		}
		return db.TranslateError(s.repo.Create(ctx, tx, user), "user")
	})
	if err != nil {
		return nil, err
	}

	return s.respond(user)
}

// Login verifies the secret against the stored hash.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct("user", req); err != nil {
		return nil, err
	}

	var user *User
	err := s.store.Read(ctx, func(ctx context.Context, idb bun.IDB) error {
		var err error
		user, err = s.repo.GetByEmail(ctx, idb, req.Email)
		return err
	})
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respond(user)
}

func (s *Service) respond(user *User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken: token,
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"institute-service/internal/apperrors"

	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// TranslateError maps driver errors to application error kinds. Errors that
// already carry a kind, and errors it does not recognise, pass through.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		return err
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case pgUniqueViolation:
			return apperrors.Uniqueness(entity, pgErr.Field('n'), err)
		case pgForeignKeyViolation:
			return &apperrors.Error{Kind: apperrors.KindNotFound, Entity: entity, Field: "reference", Err: err}
		case pgNotNullViolation, pgCheckViolation:
			return &apperrors.Error{Kind: apperrors.KindValidation, Entity: entity, Field: pgErr.Field('c'), Err: err}
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperrors.Uniqueness(entity, uniqueColumn(msg), err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &apperrors.Error{Kind: apperrors.KindNotFound, Entity: entity, Field: "reference", Err: err}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return &apperrors.Error{Kind: apperrors.KindValidation, Entity: entity, Err: err}
	}

	if isUnavailable(err) {
		return apperrors.StoreUnavailable(err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection refused")
}

// uniqueColumn extracts "name" from "UNIQUE constraint failed: courses.name".
func uniqueColumn(msg string) string {
	_, rest, ok := strings.Cut(msg, "UNIQUE constraint failed: ")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, ",")
	if _, col, ok := strings.Cut(strings.TrimSpace(rest), "."); ok {
		return col
	}
	return ""
}

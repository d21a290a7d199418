// Package listing holds the filter and ordering options shared by the
// entity List operations.
package listing

import (
	"strings"

	"institute-service/internal/apperrors"

	"github.com/uptrace/bun"
)

const (
	OrderByID   = "id"
	OrderByName = "name"
)

type Options struct {
	// Search is a case-insensitive substring match on the label.
	Search       string `mapstructure:"search"`
	OrderBy      string `mapstructure:"order_by"`
	Desc         bool   `mapstructure:"desc"`
	CourseID     *int64 `mapstructure:"course_id"`
	InstructorID *int64 `mapstructure:"instructor_id"`
	StudentID    *int64 `mapstructure:"student_id"`
	Limit        int    `mapstructure:"limit"`
	Offset       int    `mapstructure:"offset"`
}

// Check rejects an unknown ordering or a reference filter the entity does
// not have.
func (o Options) Check(entity string, filters ...string) error {
	switch o.OrderBy {
	case "", OrderByID, OrderByName:
	default:
		return apperrors.Validation(entity, "order_by", "must be %q or %q", OrderByID, OrderByName)
	}
	if o.Limit < 0 || o.Offset < 0 {
		return apperrors.Validation(entity, "limit", "must not be negative")
	}

	allowed := make(map[string]bool, len(filters))
	for _, f := range filters {
		allowed[f] = true
	}
	for name, v := range map[string]*int64{
		"course_id":     o.CourseID,
		"instructor_id": o.InstructorID,
		"student_id":    o.StudentID,
	} {
		if v != nil && !allowed[name] {
			return apperrors.Validation(entity, name, "is not a filter of %s", entity)
		}
	}
	return nil
}

// Apply adds search, ordering and paging. idCol and nameCol are qualified
// column references; ties on name are broken by identity.
func Apply(q *bun.SelectQuery, idCol, nameCol string, o Options) *bun.SelectQuery {
	if s := strings.TrimSpace(o.Search); s != "" {
		q = q.Where("LOWER(?) LIKE ?", bun.Ident(nameCol), "%"+strings.ToLower(s)+"%")
	}

	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	if o.OrderBy == OrderByName {
		q = q.OrderExpr("? "+dir, bun.Ident(nameCol))
	}
	q = q.OrderExpr("? "+dir, bun.Ident(idCol))

	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	if o.Offset > 0 {
		q = q.Offset(o.Offset)
	}
	return q
}

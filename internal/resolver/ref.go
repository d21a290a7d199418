package resolver

import (
	"context"

	"institute-service/internal/apperrors"
	"institute-service/internal/schema"

	"github.com/uptrace/bun"
)

// Ref is a relationship value as a caller supplies it: by identity, by
// label, or neither to clear an optional reference.
type Ref struct {
	ID    int64
	Label string
}

func ByID(id int64) *Ref {
	return &Ref{ID: id}
}

func ByLabel(label string) *Ref {
	return &Ref{Label: label}
}

// None clears a reference.
func None() *Ref {
	return &Ref{}
}

func (r Ref) IsZero() bool {
	return r.ID == 0 && r.Label == ""
}

// Bind turns ref into the identity stored in rel's column. A nil result
// means the column is cleared.
func (r *Resolver) Bind(ctx context.Context, idb bun.IDB, rel schema.Relation, ref Ref) (*int64, error) {
	owner := string(rel.Owner)

	switch {
	case ref.IsZero():
		if !rel.Nullable {
			return nil, apperrors.Validation(owner, rel.Attribute, "is required")
		}
		return nil, nil
	case ref.ID != 0 && ref.Label != "":
		return nil, apperrors.Validation(owner, rel.Attribute, "give either an identity or a label")
	case ref.ID < 0:
		return nil, apperrors.Validation(owner, rel.Column, "must be a positive identity")
	case ref.ID > 0:
		ok, err := r.Exists(ctx, idb, rel.Target, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.NotFound(string(rel.Target), ref.ID)
		}
		id := ref.ID
		return &id, nil
	default:
		id, err := r.Resolve(ctx, idb, rel.Target, ref.Label)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}
}

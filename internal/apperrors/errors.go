package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error. The transport layer maps kinds to
// status codes; the core never carries presentation text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUniqueness
	KindNotFound
	KindAmbiguousReference
	KindRestrictedDelete
	KindStoreUnavailable
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation          = errors.New("validation failed")
	ErrUniquenessViolation = errors.New("uniqueness violation")
	ErrNotFound            = errors.New("not found")
	ErrAmbiguousReference  = errors.New("ambiguous reference")
	ErrRestrictedDelete    = errors.New("restricted delete")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindUniqueness:
		return "uniqueness_violation"
	case KindNotFound:
		return "not_found"
	case KindAmbiguousReference:
		return "ambiguous_reference"
	case KindRestrictedDelete:
		return "restricted_delete"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUniqueness:
		return ErrUniquenessViolation
	case KindNotFound:
		return ErrNotFound
	case KindAmbiguousReference:
		return ErrAmbiguousReference
	case KindRestrictedDelete:
		return ErrRestrictedDelete
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	default:
		return nil
	}
}

// Error is the structured error returned by every core operation.
type Error struct {
	Kind    Kind
	Entity  string
	Field   string
	Message string
	// IDs holds the identities involved: the candidates of an ambiguous
	// label, or the dependents blocking a restricted delete.
	IDs []int64
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	for _, k := range []Kind{
		KindValidation,
		KindUniqueness,
		KindNotFound,
		KindAmbiguousReference,
		KindRestrictedDelete,
		KindStoreUnavailable,
	} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

func Validation(entity, field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("id %d", id), IDs: []int64{id}}
}

func LabelNotFound(entity, label string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Field: "label", Message: fmt.Sprintf("%q", label)}
}

func Ambiguous(entity, label string, ids []int64) *Error {
	return &Error{
		Kind:    KindAmbiguousReference,
		Entity:  entity,
		Field:   "label",
		Message: fmt.Sprintf("%q matches %d rows", label, len(ids)),
		IDs:     ids,
	}
}

func Uniqueness(entity, field string, cause error) *Error {
	return &Error{Kind: KindUniqueness, Entity: entity, Field: field, Err: cause}
}

func Restricted(entity, dependent string, ids []int64) *Error {
	return &Error{
		Kind:    KindRestrictedDelete,
		Entity:  entity,
		Message: fmt.Sprintf("%d dependent %s rows", len(ids), dependent),
		IDs:     ids,
	}
}

func StoreUnavailable(cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Err: cause}
}

// Package events describes committed changes to the records and the
// publishers that announce them.
package events

import (
	"context"
	"strconv"
	"time"

	"institute-service/internal/integrity"
	"institute-service/internal/schema"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Change is published after the unit of work that made it has committed.
type Change struct {
	Entity     schema.EntityType `json:"entity"`
	ID         int64             `json:"id"`
	Action     Action            `json:"action"`
	Integrity  *integrity.Report `json:"integrity,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Key groups changes of one row, e.g. "student:12".
func (c Change) Key() string {
	return string(c.Entity) + ":" + strconv.FormatInt(c.ID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
	Close() error
}

type noop struct{}

// Noop discards every change.
func Noop() Publisher {
	return noop{}
}

func (noop) Publish(context.Context, Change) error { return nil }

func (noop) Close() error { return nil }

// Package messaging publishes committed record changes to NATS.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"institute-service/internal/events"

	"github.com/nats-io/nats.go"
)

type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewProducer(url string, subject string, logger *slog.Logger) (*Producer, error) {
	nc, err := nats.Connect(url, nats.Name("institute-service"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Subject is the per-entity subject a change goes to, e.g. "records.student".
func (p *Producer) Subject(change events.Change) string {
	return p.subject + "." + string(change.Entity)
}

func (p *Producer) Publish(ctx context.Context, change events.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal change", "error", err)
		return err
	}

	msg := nats.NewMsg(p.Subject(change))
	msg.Data = payload
	msg.Header.Set("Change-Key", change.Key())
	msg.Header.Set("Change-Action", string(change.Action))

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to send change to NATS", "error", err)
		return err
	}

	p.logger.DebugContext(ctx, "change sent to NATS", "subject", msg.Subject, "key", change.Key())
	return nil
}

// Close flushes buffered changes before closing the connection.
func (p *Producer) Close() error {
	err := p.conn.Flush()
	p.conn.Close()
	return err
}

var _ events.Publisher = (*Producer)(nil)

package app

import (
	"fmt"
	"log/slog"

	"institute-service/internal/config"
	"institute-service/internal/events"
	"institute-service/internal/kafka"
	"institute-service/internal/messaging"
)

// newPublisher picks the change feed transport. A broker that cannot be
// reached at startup is logged and replaced by a no-op publisher; the
// records themselves never depend on it.
func newPublisher(cfg config.EventsConfig, logger *slog.Logger) events.Publisher {
	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize event publisher, changes will not be announced",
			"driver", cfg.Driver, "error", err)
		return events.Noop()
	}
	return publisher
}

func openPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		logger.Info("event publishing disabled")
		return events.Noop(), nil
	case "nats":
		return messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

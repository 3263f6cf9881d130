package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSPublisher connects to NATS and returns a publisher. Close the
// publisher when the process shuts down.
func NewNATSPublisher(url string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("bss-core"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// Publish encodes the event as JSON and publishes it. Event delivery is
// fire-and-forget; failures are logged but must not fail the business
// operation that produced them.
func (p *NATSPublisher) Publish(_ context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("event publish failed")
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/cibuilder/internal/config"
)

// NatsNotifier publishes change events to a NATS subject.
type NatsNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNatsNotifier connects to the configured NATS server.
func NewNatsNotifier(cfg config.NatsConfig) (*NatsNotifier, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", "url", cfg.URL, "subject", cfg.Subject)
	return &NatsNotifier{conn: conn, subject: cfg.Subject}, nil
}

// PublishChange publishes one change event as JSON.
func (n *NatsNotifier) PublishChange(_ context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Close drains the connection, flushing pending publishes.
func (n *NatsNotifier) Close() error {
	return n.conn.Drain()
}

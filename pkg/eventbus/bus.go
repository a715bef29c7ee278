package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/chatguard/fraud-monitor/pkg/logger"
)

// Event is the envelope published on the bus.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Handler processes a single event from a subscription.
type Handler func(ctx context.Context, event *Event) error

// Bus is a thin JSON event bus on top of NATS.
type Bus struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection with sane reconnect defaults.
func Connect(url string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return &Bus{conn: conn}, nil
}

// Publish marshals data and publishes it under the given subject. The event
// type equals the subject.
func (b *Bus) Publish(ctx context.Context, subject string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	event := Event{
		Type:       subject,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a queue subscription for the subject pattern.
func (b *Bus) Subscribe(ctx context.Context, subject, queue string, handler Handler) error {
	_, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn("eventbus: dropping malformed event")
			return
		}
		if err := handler(ctx, &event); err != nil {
			logger.Warn("eventbus: handler failed for " + event.Type)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the underlying connection.
func (b *Bus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}

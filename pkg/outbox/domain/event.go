package domain

import (
	"encoding/json"
	"fmt"
	"time"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
)

type OutboxEvent struct {
	Id            int64           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Headers       json.RawMessage `db:"headers"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
	Attempts      int64           `db:"attempts"`
	LastError     *string         `db:"last_error"`
	Topic         string          `db:"topic"`
}

// NewOutboxEvent wraps payload in the bus envelope for the given aggregate.
func NewOutboxEvent(topic, aggregateType string, aggregateID int64, eventType string, payload any) (*OutboxEvent, error) {
	envelope, err := generalDomain.NewEnvelope(eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", eventType, err)
	}

	return &OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   fmt.Sprintf("%d", aggregateID),
		EventType:     eventType,
		Payload:       envelope,
		Topic:         topic,
	}, nil
}

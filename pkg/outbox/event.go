package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

type Event struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AggregateType string          `gorm:"size:64;not null" json:"aggregate_type"`
	AggregateID   string          `gorm:"size:64;not null;index" json:"aggregate_id"`
	EventType     string          `gorm:"size:64;not null" json:"event_type"`
	Topic         string          `gorm:"size:128;not null" json:"topic"`
	Payload       string          `gorm:"type:text;not null" json:"payload"`
	Attempts      int             `gorm:"not null;default:0" json:"attempts"`
	LastError     *string         `json:"last_error,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	PublishedAt   *time.Time      `gorm:"index" json:"published_at,omitempty"`
}

func (Event) TableName() string { return "outbox_events" }

func NewEvent(aggregateType, aggregateID, eventType, topic string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("outbox: marshal %s payload: %w", eventType, err)
	}
	return &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       string(data),
	}, nil
}

// Envelope is what lands on the topic.
type Envelope struct {
	EventID     uint64          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

func (e *Event) Envelope() Envelope {
	return Envelope{
		EventID:     e.ID,
		EventType:   e.EventType,
		AggregateID: e.AggregateID,
		OccurredAt:  e.CreatedAt,
		Payload:     json.RawMessage(e.Payload),
	}
}

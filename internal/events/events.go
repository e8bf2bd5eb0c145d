// Package events carries domain notifications to the dashboard websocket and,
// when configured, to Kafka.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	TypeStockUpdate = "stock_update"
	TypeOrderUpdate = "order_update"
)

const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionStockAdjusted  = "stock_adjusted"
	ActionOrderCreated   = "order_created"
	ActionOrderUpdated   = "order_updated"
	ActionOrderDeleted   = "order_deleted"
	ActionOrderProcessed = "order_processed"
)

// Actor identifies who triggered an event.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Event struct {
	Type       string      `json:"type"`
	Action     string      `json:"action"`
	Data       interface{} `json:"data,omitempty"`
	User       *Actor      `json:"user,omitempty"`
	Message    string      `json:"message,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`

	// Key groups related events (same product or order) on one Kafka partition.
	Key string `json:"-"`
}

func New(eventType, action, key string, data interface{}) Event {
	return Event{
		Type:       eventType,
		Action:     action,
		Data:       data,
		Key:        key,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

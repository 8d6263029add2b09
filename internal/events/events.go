// Package events carries domain events emitted after a state change commits.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderServed        = "order.served"
	TypeDishStatusChanged  = "dish.status_changed"
	TypeTableStatusChanged = "table.status_changed"
)

// Event is the envelope sent to every subscriber.
type Event struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New marshals payload into an Event of the given type.
func New(eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: body, OccurredAt: time.Now().UTC()}, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher, even if some of them fail.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- Payloads ---

type OrderCreated struct {
	OrderID uuid.UUID     `json:"order_id"`
	TableID int32         `json:"table_id"`
	StaffID uuid.UUID     `json:"staff_id"`
	Dishes  []DishCreated `json:"dishes"`
}

type DishCreated struct {
	DishID   uuid.UUID `json:"dish_id"`
	ItemName string    `json:"item_name"`
	Quantity int32     `json:"quantity"`
}

type OrderServed struct {
	OrderID uuid.UUID `json:"order_id"`
	TableID int32     `json:"table_id"`
}

type DishStatusChanged struct {
	DishID  uuid.UUID `json:"dish_id"`
	OrderID uuid.UUID `json:"order_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

type TableStatusChanged struct {
	TableID int32  `json:"table_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

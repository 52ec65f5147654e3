// Package events defines the notifications emitted after engine writes
// commit. Delivery is best-effort: a failed notification never changes the
// outcome of the operation that produced it.
package events

import (
	"context"
	"time"
)

// Event types
const (
	EventTablesAssigned        = "tables_assigned"
	EventTablesReleased        = "tables_released"
	EventReservationsCompleted = "reservations_completed"
	EventReservationStatus     = "reservation_status"
	EventTableCreate           = "table_create"
	EventTableUpdate           = "table_update"
)

type Message struct {
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// TablesChanged is the payload of EventTablesAssigned and EventTablesReleased.
type TablesChanged struct {
	ReservationID uint   `json:"reservation_id"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	TableIDs      []uint `json:"table_ids"`
	Added         []uint `json:"added,omitempty"`
	Removed       []uint `json:"removed,omitempty"`
	UserID        uint   `json:"user_id"`
}

// ReservationsCompleted is the payload of EventReservationsCompleted.
type ReservationsCompleted struct {
	Before  string `json:"before"`
	Updated int64  `json:"updated"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// New stamps msg with the current time.
func New(event string, data interface{}) Message {
	return Message{Event: event, OccurredAt: time.Now().UTC(), Data: data}
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// Package events publishes rental ledger events for downstream consumers.
// Publishing is best effort: a committed borrow or return is never undone
// because its event could not be delivered.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeRentalBorrowed = "rental.borrowed"
	TypeRentalReturned = "rental.returned"
)

// RentalEvent is the JSON payload of every rental event.
type RentalEvent struct {
	Type       string     `json:"type"`
	RentalID   string     `json:"rental_id"`
	UserID     string     `json:"user_id"`
	MovieID    string     `json:"movie_id"`
	MovieTitle string     `json:"movie_title"`
	RentedAt   time.Time  `json:"rented_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

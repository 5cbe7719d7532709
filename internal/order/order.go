// Package order owns the order aggregate and its half of the fulfillment
// saga: it persists new orders, publishes OrderCreated, and settles the
// final status when OrderProcessed comes back.
package order

import "time"

type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// terminal reports whether s is a status an OrderProcessed event may
// carry.
func (s Status) terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Order starts in StatusCreated and transitions at most once, to
// confirmed or cancelled, never back. Orders are never deleted.
type Order struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

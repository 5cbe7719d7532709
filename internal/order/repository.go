package order

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrAlreadySettled is returned when an update would move an order
	// out of a terminal status. Re-applying the same terminal status is
	// allowed (idempotent re-delivery of an identical event).
	ErrAlreadySettled = errors.New("order already settled")
)

// Repository is the order store. The aggregate lives in its own database,
// independent from inventory; nothing enforces the product reference
// across the two stores.
type Repository interface {
	Create(ctx context.Context, productID string, quantity int) (*Order, error)
	FindByID(ctx context.Context, id string) (*Order, error)
	FindAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

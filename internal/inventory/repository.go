// Package inventory owns the product aggregate and the stock side of the
// fulfillment saga: it consumes OrderCreated, applies the stock decision
// atomically per product, and publishes OrderProcessed.
package inventory

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Product struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

// Repository is the inventory store. DeductStock is the atomic
// decrement-if-sufficient primitive: the read-decide-write runs as one
// unit per product key, so concurrent orders against the same product are
// strictly ordered and stock can never go negative.
type Repository interface {
	FindByID(ctx context.Context, productID string) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p *Product) error
	DeductStock(ctx context.Context, productID string, quantity int) error
}

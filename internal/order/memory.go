package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is the in-process order store used when no Postgres is
// configured, and by the test suite.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*Order
	ids    []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*Order)}
}

func (r *MemoryRepository) Create(ctx context.Context, productID string, quantity int) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := &Order{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	r.orders[o.ID] = o
	r.ids = append(r.ids, o.ID)

	cp := *o
	return &cp, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]Order, 0, len(r.ids))
	for _, id := range r.ids {
		orders = append(orders, *r.orders[id])
	}
	return orders, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != StatusCreated && o.Status != status {
		return ErrAlreadySettled
	}
	o.Status = status
	return nil
}

package inventory

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository keeps products in-process. Writes to one product are
// serialized through a per-key mutex, mirroring what the Postgres
// implementation gets from row locks.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*Product
	locks    map[string]*sync.Mutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*Product),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *MemoryRepository) keyLock(productID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[productID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[productID] = l
	}
	return l
}

func (r *MemoryRepository) FindByID(ctx context.Context, productID string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, *p)
	}
	return products, nil
}

func (r *MemoryRepository) Save(ctx context.Context, p *Product) error {
	l := r.keyLock(p.ProductID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ProductID] = &cp
	return nil
}

func (r *MemoryRepository) DeductStock(ctx context.Context, productID string, quantity int) error {
	l := r.keyLock(productID)
	l.Lock()
	defer l.Unlock()

	r.mu.RLock()
	p, ok := r.products[productID]
	r.mu.RUnlock()
	if !ok {
		return ErrProductNotFound
	}

	if p.Stock < quantity {
		return fmt.Errorf("product %s: available %d, requested %d: %w", productID, p.Stock, quantity, ErrInsufficientStock)
	}

	r.mu.Lock()
	p.Stock -= quantity
	r.mu.Unlock()
	return nil
}

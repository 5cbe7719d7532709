package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mabubakr1113/order-inventory/internal/logging"
)

const (
	productListKey = "inventory:products"
	productListTTL = 30 * time.Second
)

// CachedRepository is a read-through cache in front of another
// Repository. Only the product listing is cached; it is invalidated on
// every write so stock reads stay honest. Cache failures degrade to the
// underlying store, they never fail the request.
type CachedRepository struct {
	inner Repository
	rdb   *redis.Client
}

func NewCachedRepository(inner Repository, rdb *redis.Client) *CachedRepository {
	return &CachedRepository{inner: inner, rdb: rdb}
}

func (r *CachedRepository) FindByID(ctx context.Context, productID string) (*Product, error) {
	return r.inner.FindByID(ctx, productID)
}

func (r *CachedRepository) FindAll(ctx context.Context) ([]Product, error) {
	cached, err := r.rdb.Get(ctx, productListKey).Bytes()
	if err == nil {
		var products []Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.Warn(ctx, "product cache read failed, falling through to store")
	}

	products, err := r.inner.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(products); err == nil {
		if err := r.rdb.Set(ctx, productListKey, body, productListTTL).Err(); err != nil {
			logging.Warn(ctx, "product cache write failed")
		}
	}
	return products, nil
}

func (r *CachedRepository) Save(ctx context.Context, p *Product) error {
	if err := r.inner.Save(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) DeductStock(ctx context.Context, productID string, quantity int) error {
	err := r.inner.DeductStock(ctx, productID, quantity)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if err := r.rdb.Del(ctx, productListKey).Err(); err != nil {
		logging.Warn(ctx, "product cache invalidation failed")
	}
}

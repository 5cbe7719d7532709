package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mabubakr1113/order-inventory/internal/logging"
)

// Reconciler periodically reports orders stuck in status created longer
// than the configured age — the footprint of a lost event somewhere in
// the choreography. It only makes the stall visible; it never retries or
// republishes, recovery is an out-of-band operational concern.
type Reconciler struct {
	repo     Repository
	interval time.Duration
	age      time.Duration
}

func NewReconciler(repo Repository, interval, age time.Duration) *Reconciler {
	return &Reconciler{repo: repo, interval: interval, age: age}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	orders, err := r.repo.FindAll(ctx)
	if err != nil {
		logging.Error(ctx, "reconcile sweep failed to list orders", err)
		return
	}

	cutoff := time.Now().Add(-r.age)
	for _, o := range orders {
		if o.Status == StatusCreated && o.CreatedAt.Before(cutoff) {
			logging.Warn(ctx, "order stuck in created, saga likely stalled",
				zap.String("order_id", o.ID),
				zap.Time("created_at", o.CreatedAt))
		}
	}
}

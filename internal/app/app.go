// Package app wires the two coordinators, their stores, and the shared
// event bus into one process, and owns the HTTP surface and lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mabubakr1113/order-inventory/internal/auth"
	"github.com/mabubakr1113/order-inventory/internal/broker"
	"github.com/mabubakr1113/order-inventory/internal/config"
	"github.com/mabubakr1113/order-inventory/internal/inventory"
	"github.com/mabubakr1113/order-inventory/internal/logging"
	"github.com/mabubakr1113/order-inventory/internal/order"
)

type App struct {
	cfg        config.Config
	router     *gin.Engine
	bus        *broker.Broker
	reconciler *order.Reconciler

	closers []func(context.Context) error
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// New builds the full object graph: stores per the configured backend,
// one bus instance passed by reference to both coordinators, seeded
// catalog, and the gin router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg, bus: broker.NewBroker()}

	orderRepo, inventoryRepo, err := a.buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		rdb, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		inventoryRepo = inventory.NewCachedRepository(inventoryRepo, rdb)
	}

	orderService := order.NewService(orderRepo, a.bus)
	inventoryService := inventory.NewService(inventoryRepo, a.bus)
	orderService.Subscribe()
	inventoryService.Subscribe()

	if err := inventoryService.Seed(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	a.reconciler = order.NewReconciler(orderRepo, cfg.ReconcileInterval, cfg.ReconcileAge)

	orderHandler := order.NewHandler(orderService)
	inventoryHandler := inventory.NewHandler(inventoryService)

	router := gin.New()
	router.Use(gin.Recovery())

	orders := router.Group("/orders", auth.Middleware(cfg.JWTSecret))
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)

	router.GET("/inventory", inventoryHandler.List)

	a.router = router
	return a, nil
}

func (a *App) buildStores(ctx context.Context, cfg config.Config) (order.Repository, inventory.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return order.NewMemoryRepository(), inventory.NewMemoryRepository(), nil
	case config.BackendPostgres:
		orderPool, err := newPgxPool(ctx, cfg.OrderDatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("order database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { orderPool.Close(); return nil })

		inventoryPool, err := newPgxPool(ctx, cfg.InventoryDatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("inventory database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { inventoryPool.Close(); return nil })

		orderRepo := order.NewPostgresRepository(orderPool)
		inventoryRepo := inventory.NewPostgresRepository(inventoryPool)
		for _, s := range []schemaEnsurer{orderRepo, inventoryRepo} {
			if err := s.EnsureSchema(ctx); err != nil {
				return nil, nil, err
			}
		}
		return orderRepo, inventoryRepo, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newPgxPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, fmt.Errorf("failed to instrument redis: %w", err)
	}
	return rdb, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Bus exposes the event bus, mainly for tests.
func (a *App) Bus() *broker.Broker {
	return a.bus
}

// Run serves HTTP until ctx is cancelled, then drains the bus and closes
// every resource.
func (a *App) Run(ctx context.Context) error {
	go a.reconciler.Run(ctx)

	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.router}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(ctx, "HTTP server listening", zap.String("addr", a.cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "HTTP shutdown failed", err)
	}
	return a.Close(shutdownCtx)
}

// Close drains in-flight event deliveries and releases stores.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.bus.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

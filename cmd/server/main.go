package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mabubakr1113/order-inventory/internal/app"
	"github.com/mabubakr1113/order-inventory/internal/config"
	"github.com/mabubakr1113/order-inventory/internal/logging"
	"github.com/mabubakr1113/order-inventory/internal/observability"
)

func main() {
	var cfg config.Config
	config.LoadConfig(&cfg)

	if err := logging.Init(cfg.OtelServiceName); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OtelExporterEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, cfg.OtelExporterEndpoint, cfg.OtelServiceName)
		if err != nil {
			log.Fatalf("failed to init tracing: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Error(context.Background(), "tracer shutdown failed", err)
			}
		}()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

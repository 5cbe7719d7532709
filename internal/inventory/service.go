package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mabubakr1113/order-inventory/internal/broker"
	"github.com/mabubakr1113/order-inventory/internal/logging"
)

type Service struct {
	repo Repository
	bus  *broker.Broker
}

func NewService(repo Repository, bus *broker.Broker) *Service {
	return &Service{repo: repo, bus: bus}
}

// Subscribe registers the OrderCreated consumer on the bus.
func (s *Service) Subscribe() {
	s.bus.Subscribe(broker.TopicOrderCreated, s.HandleOrderCreated)
}

func (s *Service) FindAll(ctx context.Context) ([]Product, error) {
	return s.repo.FindAll(ctx)
}

// HandleOrderCreated applies the stock decision for one order: deduct
// when the product exists with sufficient stock, otherwise leave stock
// untouched. Whatever happens, exactly one OrderProcessed is published —
// confirmed on a successful deduction, cancelled in every other case —
// so every consumed OrderCreated closes the saga deterministically. No
// retries, no compensation path back into inventory.
func (s *Service) HandleOrderCreated(ctx context.Context, body []byte) error {
	var evt broker.OrderCreatedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
	}

	logging.Info(ctx, "processing OrderCreated event",
		zap.String("order_id", evt.OrderID),
		zap.String("product_id", evt.ProductID),
		zap.Int("quantity", evt.Quantity))

	result := broker.OrderProcessedEvent{
		OrderID: evt.OrderID,
		Status:  "cancelled",
	}

	err := s.repo.DeductStock(ctx, evt.ProductID, evt.Quantity)
	switch {
	case err == nil:
		result.Status = "confirmed"
		logging.Info(ctx, "stock deduction SUCCESSFUL", zap.String("order_id", evt.OrderID))
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInsufficientStock):
		logging.Info(ctx, "order cancelled", zap.String("order_id", evt.OrderID), zap.String("reason", err.Error()))
	default:
		// Store failure: the decision could not be made, but the saga
		// must still resolve. Cancel and keep the cause in the logs.
		logging.Error(ctx, "stock deduction FAILED, cancelling order", err, zap.String("order_id", evt.OrderID))
	}

	if err := s.bus.Publish(ctx, broker.TopicOrderProcessed, result); err != nil {
		logging.Error(ctx, "CRITICAL: failed to publish OrderProcessed event", err, zap.String("order_id", evt.OrderID))
		return err
	}
	return nil
}

// Seed ensures the initial catalog exists without overwriting rows that
// are already present.
func (s *Service) Seed(ctx context.Context) error {
	products := []Product{
		{ProductID: "1", Stock: 10},
		{ProductID: "2", Stock: 5},
	}

	for _, p := range products {
		_, err := s.repo.FindByID(ctx, p.ProductID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrProductNotFound) {
			return fmt.Errorf("seed lookup for product %s: %w", p.ProductID, err)
		}
		if err := s.repo.Save(ctx, &p); err != nil {
			return fmt.Errorf("seed save for product %s: %w", p.ProductID, err)
		}
		logging.Info(ctx, "seeded product", zap.String("product_id", p.ProductID), zap.Int("stock", p.Stock))
	}
	return nil
}

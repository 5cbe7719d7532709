package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mabubakr1113/order-inventory/internal/broker"
	"github.com/mabubakr1113/order-inventory/internal/logging"
)

type Service struct {
	repo Repository
	bus  *broker.Broker
}

// NewService wires the coordinator to its store and the shared bus. The
// bus is passed in explicitly; there is no ambient registration.
func NewService(repo Repository, bus *broker.Broker) *Service {
	return &Service{repo: repo, bus: bus}
}

// Subscribe registers the OrderProcessed consumer on the bus.
func (s *Service) Subscribe() {
	s.bus.Subscribe(broker.TopicOrderProcessed, s.HandleOrderProcessed)
}

// Create persists a new order in status created, then publishes
// OrderCreated with the persisted id. If the publish fails the order
// stays created indefinitely: fire-and-forget choreography has no way to
// recover the event, so the gap is logged loudly instead of failing the
// request (the order itself was created). The reconciler makes these
// visible later.
func (s *Service) Create(ctx context.Context, productID string, quantity int) (*Order, error) {
	o, err := s.repo.Create(ctx, productID, quantity)
	if err != nil {
		logging.Error(ctx, "order persistence failed", err, zap.String("product_id", productID))
		return nil, fmt.Errorf("could not create order: %w", err)
	}

	evt := broker.OrderCreatedEvent{
		OrderID:   o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
	}
	if err := s.bus.Publish(ctx, broker.TopicOrderCreated, evt); err != nil {
		logging.Error(ctx, "LOST EVENT: order persisted but OrderCreated publish failed, order remains created", err,
			zap.String("order_id", o.ID))
	}
	return o, nil
}

func (s *Service) FindAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}
	return orders, nil
}

// HandleOrderProcessed consumes OrderProcessed and settles the order's
// final status. An unmatched order id is a bus- or bug-level anomaly and
// is surfaced as an error (the bus logs it), never dropped. Re-applying
// an identical payload is a no-op in effect; no event deduplication is
// performed, per the bus's at-most-once contract.
func (s *Service) HandleOrderProcessed(ctx context.Context, body []byte) error {
	var evt broker.OrderProcessedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("failed to unmarshal OrderProcessed event: %w", err)
	}

	status := Status(evt.Status)
	if !status.terminal() {
		return fmt.Errorf("OrderProcessed for order %q carries invalid status %q", evt.OrderID, evt.Status)
	}

	logging.Info(ctx, "processing OrderProcessed event",
		zap.String("order_id", evt.OrderID), zap.String("status", evt.Status))

	if _, err := s.repo.FindByID(ctx, evt.OrderID); err != nil {
		return fmt.Errorf("OrderProcessed references order %q: %w", evt.OrderID, err)
	}
	if err := s.repo.UpdateStatus(ctx, evt.OrderID, status); err != nil {
		return fmt.Errorf("could not update status of order %q: %w", evt.OrderID, err)
	}
	return nil
}

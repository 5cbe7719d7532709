package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabubakr1113/order-inventory/internal/broker"
)

type publishedEvents struct {
	mu     sync.Mutex
	bodies [][]byte
}

func captureTopic(b *broker.Broker, topic string) *publishedEvents {
	p := &publishedEvents{}
	b.Subscribe(topic, func(ctx context.Context, body []byte) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.bodies = append(p.bodies, body)
		return nil
	})
	return p
}

func (p *publishedEvents) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bodies)
}

func (p *publishedEvents) decode(t *testing.T, i int, v any) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.Less(t, i, len(p.bodies))
	require.NoError(t, json.Unmarshal(p.bodies[i], v))
}

func TestCreatePersistsAndPublishesOrderCreated(t *testing.T) {
	bus := broker.NewBroker()
	captured := capturedCreated(bus)
	svc := NewService(NewMemoryRepository(), bus)

	o, err := svc.Create(context.Background(), "1", 5)
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)
	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, "1", o.ProductID)
	assert.Equal(t, 5, o.Quantity)

	require.Eventually(t, func() bool { return captured.count() == 1 }, time.Second, 5*time.Millisecond)

	var evt broker.OrderCreatedEvent
	captured.decode(t, 0, &evt)
	assert.Equal(t, broker.OrderCreatedEvent{OrderID: o.ID, ProductID: "1", Quantity: 5}, evt)
}

func capturedCreated(bus *broker.Broker) *publishedEvents {
	return captureTopic(bus, broker.TopicOrderCreated)
}

type failingRepository struct{}

func (failingRepository) Create(ctx context.Context, productID string, quantity int) (*Order, error) {
	return nil, errors.New("store unreachable")
}
func (failingRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	return nil, errors.New("store unreachable")
}
func (failingRepository) FindAll(ctx context.Context) ([]Order, error) {
	return nil, errors.New("store unreachable")
}
func (failingRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	return errors.New("store unreachable")
}

func TestCreatePersistenceFailurePublishesNothing(t *testing.T) {
	bus := broker.NewBroker()
	captured := capturedCreated(bus)
	svc := NewService(failingRepository{}, bus)

	_, err := svc.Create(context.Background(), "1", 5)
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, captured.count())
}

func TestHandleOrderProcessedSettlesStatus(t *testing.T) {
	bus := broker.NewBroker()
	repo := NewMemoryRepository()
	svc := NewService(repo, bus)

	o, err := repo.Create(context.Background(), "1", 5)
	require.NoError(t, err)

	body, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: o.ID, Status: "confirmed"})
	require.NoError(t, svc.HandleOrderProcessed(context.Background(), body))

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestHandleOrderProcessedIsIdempotentForIdenticalPayload(t *testing.T) {
	bus := broker.NewBroker()
	repo := NewMemoryRepository()
	svc := NewService(repo, bus)

	o, err := repo.Create(context.Background(), "2", 1)
	require.NoError(t, err)

	body, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: o.ID, Status: "cancelled"})
	require.NoError(t, svc.HandleOrderProcessed(context.Background(), body))
	require.NoError(t, svc.HandleOrderProcessed(context.Background(), body))

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestHandleOrderProcessedRejectsSecondTransition(t *testing.T) {
	bus := broker.NewBroker()
	repo := NewMemoryRepository()
	svc := NewService(repo, bus)

	o, err := repo.Create(context.Background(), "2", 1)
	require.NoError(t, err)

	confirmed, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: o.ID, Status: "confirmed"})
	cancelled, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: o.ID, Status: "cancelled"})
	require.NoError(t, svc.HandleOrderProcessed(context.Background(), confirmed))

	err = svc.HandleOrderProcessed(context.Background(), cancelled)
	require.ErrorIs(t, err, ErrAlreadySettled)

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status, "first transition must stick")
}

func TestHandleOrderProcessedUnknownOrderIsAnomaly(t *testing.T) {
	bus := broker.NewBroker()
	svc := NewService(NewMemoryRepository(), bus)

	body, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: "no-such-order", Status: "confirmed"})
	err := svc.HandleOrderProcessed(context.Background(), body)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHandleOrderProcessedRejectsInvalidStatus(t *testing.T) {
	bus := broker.NewBroker()
	repo := NewMemoryRepository()
	svc := NewService(repo, bus)

	o, err := repo.Create(context.Background(), "1", 1)
	require.NoError(t, err)

	body, _ := json.Marshal(broker.OrderProcessedEvent{OrderID: o.ID, Status: "created"})
	require.Error(t, svc.HandleOrderProcessed(context.Background(), body))

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, got.Status)
}

func TestValidateCreateOrder(t *testing.T) {
	assert.Nil(t, ValidateCreateOrder(CreateOrderRequest{ProductID: "1", Quantity: 1}))

	verr := ValidateCreateOrder(CreateOrderRequest{ProductID: "", Quantity: 0})
	require.NotNil(t, verr)
	assert.Len(t, verr.Messages, 2)

	verr = ValidateCreateOrder(CreateOrderRequest{ProductID: "  ", Quantity: 3})
	require.NotNil(t, verr)
	assert.Contains(t, verr.Error(), "productId")

	verr = ValidateCreateOrder(CreateOrderRequest{ProductID: "1", Quantity: -2})
	require.NotNil(t, verr)
	assert.Contains(t, verr.Error(), "quantity")
}

package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (r *recorder) handler(ctx context.Context, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func (r *recorder) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bodies) == 0 {
		return nil
	}
	return r.bodies[len(r.bodies)-1]
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	first := &recorder{}
	second := &recorder{}
	b.Subscribe(TopicOrderCreated, first.handler)
	b.Subscribe(TopicOrderCreated, second.handler)

	evt := OrderCreatedEvent{OrderID: "o-1", ProductID: "1", Quantity: 5}
	require.NoError(t, b.Publish(context.Background(), TopicOrderCreated, evt))

	require.Eventually(t, func() bool {
		return first.count() == 1 && second.count() == 1
	}, time.Second, 5*time.Millisecond)

	var got OrderCreatedEvent
	require.NoError(t, json.Unmarshal(first.last(), &got))
	assert.Equal(t, evt, got)
}

func TestEnvelopeFieldNames(t *testing.T) {
	// The JSON field names are the interoperability contract.
	body, err := json.Marshal(OrderCreatedEvent{OrderID: "o-1", ProductID: "p-1", Quantity: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o-1","productId":"p-1","quantity":2}`, string(body))

	body, err = json.Marshal(OrderProcessedEvent{OrderID: "o-1", Status: "confirmed"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o-1","status":"confirmed"}`, string(body))
}

func TestHandlerFailuresAreIsolated(t *testing.T) {
	b := NewBroker()
	b.Subscribe(TopicOrderProcessed, func(ctx context.Context, body []byte) error {
		return errors.New("boom")
	})
	b.Subscribe(TopicOrderProcessed, func(ctx context.Context, body []byte) error {
		panic("much worse")
	})
	healthy := &recorder{}
	b.Subscribe(TopicOrderProcessed, healthy.handler)

	err := b.Publish(context.Background(), TopicOrderProcessed, OrderProcessedEvent{OrderID: "o-1", Status: "cancelled"})
	require.NoError(t, err, "publisher must not observe handler failures")

	require.Eventually(t, func() bool {
		return healthy.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPublishWithoutSubscribersIsSilentlyLost(t *testing.T) {
	b := NewBroker()
	err := b.Publish(context.Background(), "some_topic", OrderProcessedEvent{OrderID: "o-1", Status: "confirmed"})
	assert.NoError(t, err)
}

func TestTopicsAreIndependent(t *testing.T) {
	b := NewBroker()
	created := &recorder{}
	processed := &recorder{}
	b.Subscribe(TopicOrderCreated, created.handler)
	b.Subscribe(TopicOrderProcessed, processed.handler)

	require.NoError(t, b.Publish(context.Background(), TopicOrderCreated, OrderCreatedEvent{OrderID: "o-1"}))

	require.Eventually(t, func() bool { return created.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, processed.count())
}

func TestCloseDrainsAndRejectsPublish(t *testing.T) {
	b := NewBroker()
	slow := &recorder{}
	b.Subscribe(TopicOrderCreated, func(ctx context.Context, body []byte) error {
		time.Sleep(50 * time.Millisecond)
		return slow.handler(ctx, body)
	})

	require.NoError(t, b.Publish(context.Background(), TopicOrderCreated, OrderCreatedEvent{OrderID: "o-1"}))
	require.NoError(t, b.Close(context.Background()))
	assert.Equal(t, 1, slow.count(), "close must wait for in-flight deliveries")

	err := b.Publish(context.Background(), TopicOrderCreated, OrderCreatedEvent{OrderID: "o-2"})
	assert.Error(t, err)
}

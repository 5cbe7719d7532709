// Package broker is the in-process event bus the order and inventory
// coordinators exchange events over. Payloads cross the bus as JSON, so
// the envelope field names in events.go stay the interoperability
// contract even though no network is involved.
//
// Delivery is at-most-once per registered handler: no log, no retry
// queue, no redelivery. A publish with no subscribers is silently lost.
// Dispatch is asynchronous; the publisher never blocks on, and never
// observes, a handler's outcome. Handler errors and panics are logged
// and isolated from other handlers.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mabubakr1113/order-inventory/internal/logging"
)

type TraceCarrier map[string]string

func (c TraceCarrier) Get(key string) string { return c[key] }

func (c TraceCarrier) Set(key, val string) { c[key] = val }

func (c TraceCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Handler consumes the JSON body of a delivered event. An error return is
// logged as a consumer failure; it is never surfaced to the publisher.
type Handler func(ctx context.Context, body []byte) error

type delivery struct {
	topic   string
	body    []byte
	headers TraceCarrier
}

type Broker struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	tracer   trace.Tracer

	inflight sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
}

func NewBroker() *Broker {
	return &Broker{
		handlers: make(map[string][]Handler),
		tracer:   otel.Tracer("order-inventory.broker"),
	}
}

// Subscribe registers a handler for a topic. Handlers are dispatched in
// registration order.
func (b *Broker) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish marshals the payload and hands it off to a dispatch goroutine
// for the topic's handlers. The returned error covers marshalling and
// bus shutdown only; once Publish returns nil the event's fate is
// unobservable to the caller.
func (b *Broker) Publish(ctx context.Context, topic string, payload any) error {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return fmt.Errorf("broker is closed")
	}
	b.closeMu.Unlock()

	spanCtx, span := b.tracer.Start(ctx, topic+" publish", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("inproc"),
			semconv.MessagingDestinationName(topic),
		),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := make(TraceCarrier)
	otel.GetTextMapPropagator().Inject(spanCtx, headers)

	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		logging.Warn(ctx, "event published with no subscribers, dropping", zap.String("topic", topic))
		return nil
	}

	b.inflight.Add(1)
	go b.dispatch(delivery{topic: topic, body: body, headers: headers}, handlers)
	return nil
}

// dispatch runs on its own goroutine so the publisher never blocks on
// subscriber completion. Handlers for one delivery run in registration
// order; a failing or panicking handler does not stop the ones after it.
func (b *Broker) dispatch(d delivery, handlers []Handler) {
	defer b.inflight.Done()
	for _, h := range handlers {
		b.deliver(d, h)
	}
}

func (b *Broker) deliver(d delivery, h Handler) {
	parentCtx := otel.GetTextMapPropagator().Extract(context.Background(), d.headers)
	ctx, span := b.tracer.Start(parentCtx, d.topic+" receive", trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("inproc"),
			semconv.MessagingDestinationName(d.topic),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panic: %v", r)
			logging.Error(ctx, "event handler panicked", err, zap.String("topic", d.topic))
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler panic")
		}
	}()

	if err := h(ctx, d.body); err != nil {
		logging.Error(ctx, "event handler failed", err, zap.String("topic", d.topic))
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
	}
}

// Close waits for in-flight deliveries to drain, then rejects further
// publishes. Bounded by the given context.
func (b *Broker) Close(ctx context.Context) error {
	b.closeMu.Lock()
	b.closed = true
	b.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("broker close timed out waiting for in-flight deliveries")
	}
}

package broker

// Topic names and envelope field names below are the interoperability
// surface of the choreography; other consumers (monitoring, adjacent
// bounded contexts) key off them.
const (
	TopicOrderCreated   = "order_created"
	TopicOrderProcessed = "order_processed"
)

// OrderCreatedEvent is published once per successfully persisted order.
type OrderCreatedEvent struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderProcessedEvent closes the saga for one order. Status is either
// "confirmed" or "cancelled"; exactly one is published per consumed
// OrderCreatedEvent.
type OrderProcessedEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

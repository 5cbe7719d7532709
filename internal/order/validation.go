package order

import "strings"

type CreateOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ValidationError lists every rejected field; the HTTP layer maps it to a
// 400 with the messages as-is.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidateCreateOrder checks a create-order request before the
// coordinator is invoked. Pure function, no I/O.
func ValidateCreateOrder(req CreateOrderRequest) *ValidationError {
	var messages []string
	if strings.TrimSpace(req.ProductID) == "" {
		messages = append(messages, "productId must be a non-empty string")
	}
	if req.Quantity < 1 {
		messages = append(messages, "quantity must be at least 1")
	}
	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

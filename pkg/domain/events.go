package domain

import (
	"encoding/json"
	"time"
)

const (
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
	TopicPaymentEvents  = "payment.events"
	TopicUserEvents     = "user_events"
)

const (
	EventOrderPaid        = "OrderPaid"
	EventOrderCancelled   = "OrderCancelled"
	EventPaymentSucceeded = "PaymentSucceeded"
	EventPaymentFailed    = "PaymentFailed"
	EventUserRegistered   = "UserRegistered"
)

// Envelope is the wire shape of every bus message.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	EventID int64           `json:"event_id,omitempty"`
}

type OrderPaidEvent struct {
	OrderID     int64  `json:"order_id"`
	UserID      int64  `json:"user_id"`
	UserEmail   string `json:"user_email"`
	EventID     int64  `json:"event_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

type OrderCancelledItem struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quantity     int32 `json:"quantity"`
}

type OrderCancelledEvent struct {
	OrderID  int64                `json:"order_id"`
	EventID  int64                `json:"event_id"`
	Refunded bool                 `json:"refunded"`
	Items    []OrderCancelledItem `json:"items"`
}

type PaymentSucceededEvent struct {
	OrderID       int64     `json:"order_id"`
	PaymentID     int64     `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}

type PaymentFailedEvent struct {
	OrderID       int64     `json:"order_id"`
	PaymentID     int64     `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	FailedAt      time.Time `json:"failed_at"`
}

type UserRegisteredEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// NewEnvelope marshals payload under the given event name.
func NewEnvelope(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Event: event, Payload: raw})
}

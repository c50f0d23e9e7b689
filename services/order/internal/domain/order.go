package domain

import "time"

const DefaultCurrency = "USD"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

type Order struct {
	ID            int64       `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	EventID       int64       `json:"event_id" db:"event_id"`
	TotalAmount   int64       `json:"total_amount" db:"total_amount"`
	Currency      string      `json:"currency" db:"currency"`
	DiscountCode  *string     `json:"discount_code,omitempty" db:"discount_code"`
	PaymentMethod *string     `json:"payment_method,omitempty" db:"payment_method"`
	Status        OrderStatus `json:"status" db:"status"`
	Items         []OrderItem `json:"items" db:"items"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type OrderItem struct {
	ID           int64  `json:"id" db:"id"`
	OrderID      int64  `json:"order_id" db:"order_id"`
	TicketTypeID int64  `json:"ticket_type_id" db:"ticket_type_id"`
	ShowtimeID   *int64 `json:"showtime_id,omitempty" db:"showtime_id"`
	Quantity     int32  `json:"quantity" db:"quantity"`
	UnitPrice    int64  `json:"unit_price" db:"unit_price"`
}

func (o *Order) Subtotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// AddItem accumulates quantity into the item of the same ticket type and showtime,
// appending a new item the first time the pair is seen.
func (o *Order) AddItem(ticketTypeID int64, showtimeID *int64, quantity int32, unitPrice int64) {
	for i := range o.Items {
		item := &o.Items[i]
		if item.TicketTypeID == ticketTypeID && sameShowtime(item.ShowtimeID, showtimeID) {
			item.Quantity += quantity
			return
		}
	}

	o.Items = append(o.Items, OrderItem{
		TicketTypeID: ticketTypeID,
		ShowtimeID:   showtimeID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
	})
}

func sameShowtime(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// QuantityByTicketType sums item quantities per ticket type in first-seen order.
func (o *Order) QuantityByTicketType() []TicketQuantity {
	index := make(map[int64]int, len(o.Items))
	var out []TicketQuantity
	for _, item := range o.Items {
		if i, ok := index[item.TicketTypeID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.TicketTypeID] = len(out)
		out = append(out, TicketQuantity{TicketTypeID: item.TicketTypeID, Quantity: item.Quantity})
	}
	return out
}

type TicketQuantity struct {
	TicketTypeID int64
	Quantity     int32
}

type ItemRequest struct {
	TicketTypeID int64  `json:"ticket_type_id" validate:"required,gt=0"`
	ShowtimeID   *int64 `json:"showtime_id,omitempty"`
	Quantity     int32  `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	UserID         int64         `json:"-"`
	EventID        int64         `json:"event_id" validate:"required,gt=0"`
	ReservationIDs []int64       `json:"reservation_ids" validate:"required_without=Items,dive,gt=0"`
	Items          []ItemRequest `json:"items" validate:"required_without=ReservationIDs,dive"`
	DiscountCode   string        `json:"discount_code"`
	PaymentMethod  string        `json:"payment_method"`
	Currency       string        `json:"currency"`
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentInfo struct {
	OrderID       int64         `json:"order_id" db:"order_id"`
	Method        string        `json:"method" db:"method"`
	TransactionID *string       `json:"transaction_id,omitempty" db:"transaction_id"`
	Amount        int64         `json:"amount" db:"amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
}

// PaymentOutcome is a provider result applied to an order, from a callback or a synchronous charge.
type PaymentOutcome struct {
	OrderID       int64
	TransactionID string
	Status        PaymentStatus
	PaymentURL    string
}

// OrderDetail is the internal view other services read.
type OrderDetail struct {
	Order
	UserEmail string `json:"user_email"`
}

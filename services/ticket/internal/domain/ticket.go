package domain

import "time"

type TicketStatus string

const (
	TicketStatusIssued      TicketStatus = "ISSUED"
	TicketStatusScanned     TicketStatus = "SCANNED"
	TicketStatusTransferred TicketStatus = "TRANSFERRED"
	TicketStatusRefunded    TicketStatus = "REFUNDED"
)

type Ticket struct {
	ID            int64        `json:"id" db:"id"`
	OrderID       int64        `json:"order_id" db:"order_id"`
	EventID       int64        `json:"event_id" db:"event_id"`
	TicketTypeID  int64        `json:"ticket_type_id" db:"ticket_type_id"`
	ShowtimeID    *int64       `json:"showtime_id,omitempty" db:"showtime_id"`
	UserID        int64        `json:"user_id" db:"user_id"`
	AttendeeEmail string       `json:"attendee_email,omitempty" db:"attendee_email"`
	SeatLabel     *string      `json:"seat_label,omitempty" db:"seat_label"`
	TicketCode    string       `json:"ticket_code" db:"ticket_code"`
	Status        TicketStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// OrderDetail is the order view read from the order service before issuing.
type OrderDetail struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	EventID   int64       `json:"event_id"`
	Status    string      `json:"status"`
	UserEmail string      `json:"user_email"`
	Items     []OrderItem `json:"items"`
}

const OrderStatusPaid = "PAID"

type OrderItem struct {
	TicketTypeID int64  `json:"ticket_type_id"`
	ShowtimeID   *int64 `json:"showtime_id,omitempty"`
	Quantity     int32  `json:"quantity"`
}

// Expand turns every order item into Quantity tickets with fresh codes.
// codes maps ticket type ids to their codes, used to pick zone labels.
func Expand(order *OrderDetail, email string, codes map[int64]string, labels *LabelRotator, newCode func() string) []Ticket {
	var tickets []Ticket
	for _, item := range order.Items {
		for i := int32(0); i < item.Quantity; i++ {
			tickets = append(tickets, Ticket{
				OrderID:       order.ID,
				EventID:       order.EventID,
				TicketTypeID:  item.TicketTypeID,
				ShowtimeID:    item.ShowtimeID,
				UserID:        order.UserID,
				AttendeeEmail: email,
				SeatLabel:     labels.Next(codes[item.TicketTypeID]),
				TicketCode:    newCode(),
				Status:        TicketStatusIssued,
			})
		}
	}

	return tickets
}

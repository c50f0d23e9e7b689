package domain

import "time"

// HoldDuration is how long a PENDING reservation keeps its seat or quantity.
const HoldDuration = 5 * time.Minute

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

type Reservation struct {
	ID           int64             `json:"id" db:"id"`
	UserID       int64             `json:"user_id" db:"user_id"`
	EventID      int64             `json:"event_id" db:"event_id"`
	TicketTypeID int64             `json:"ticket_type_id" db:"ticket_type_id"`
	SeatID       *int64            `json:"seat_id,omitempty" db:"seat_id"`
	Quantity     int32             `json:"quantity" db:"quantity"`
	Status       ReservationStatus `json:"status" db:"status"`
	ExpireAt     time.Time         `json:"expire_at" db:"expire_at"`
	OrderID      *int64            `json:"order_id,omitempty" db:"order_id"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// Holding reports whether the reservation still blocks its seat or quantity at now.
func (r *Reservation) Holding(now time.Time) bool {
	switch r.Status {
	case ReservationStatusConfirmed:
		return true
	case ReservationStatusPending:
		return r.ExpireAt.After(now)
	default:
		return false
	}
}

type HoldRequest struct {
	UserID       int64
	EventID      int64
	TicketTypeID int64
	SeatID       *int64
	Quantity     int32
}

// LineItem is what an order takes from a consumed reservation.
type LineItem struct {
	ReservationID int64
	EventID       int64
	TicketTypeID  int64
	SeatID        *int64
	Quantity      int32
}

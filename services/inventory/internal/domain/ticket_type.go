package domain

import "time"

type TicketType struct {
	ID            int64      `json:"id" db:"id"`
	EventID       int64      `json:"event_id" db:"event_id"`
	Code          string     `json:"code" db:"code"`
	Name          string     `json:"name" db:"name"`
	Price         int64      `json:"price" db:"price"`
	Quota         int64      `json:"quota" db:"quota"`
	PurchaseLimit int32      `json:"purchase_limit" db:"purchase_limit"`
	SaleStart     *time.Time `json:"sale_start,omitempty" db:"sale_start"`
	SaleEnd       *time.Time `json:"sale_end,omitempty" db:"sale_end"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type QuotaChange struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quota        int64 `json:"quota"`
}

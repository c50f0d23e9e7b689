package domain

import "time"

// Event carries the refund policy of an event.
type Event struct {
	ID                  int64     `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	StartTime           time.Time `json:"start_time" db:"start_time"`
	RefundEnabled       bool      `json:"refund_enabled" db:"refund_enabled"`
	RefundDeadlineHours int32     `json:"refund_deadline_hours" db:"refund_deadline_hours"`
	RefundFeePercent    int32     `json:"refund_fee_percent" db:"refund_fee_percent"`
}

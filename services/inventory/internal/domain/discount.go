package domain

import "time"

type Discount struct {
	ID                 int64      `json:"id" db:"id"`
	EventID            int64      `json:"event_id" db:"event_id"`
	Code               string     `json:"code" db:"code"`
	DiscountPercent    *int32     `json:"discount_percent,omitempty" db:"discount_percent"`
	DiscountAmount     *int64     `json:"discount_amount,omitempty" db:"discount_amount"`
	MinimumOrderAmount int64      `json:"minimum_order_amount" db:"minimum_order_amount"`
	UsageLimit         *int32     `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount          int32      `json:"used_count" db:"used_count"`
	ValidFrom          *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo            *time.Time `json:"valid_to,omitempty" db:"valid_to"`
	Active             bool       `json:"active" db:"active"`
}

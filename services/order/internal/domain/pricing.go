package domain

import (
	"fmt"
	"time"
)

// TicketTypeInfo is the inventory view of a ticket type. Its price is authoritative.
type TicketTypeInfo struct {
	ID            int64      `json:"id"`
	EventID       int64      `json:"event_id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Price         int64      `json:"price"`
	Quota         int64      `json:"quota"`
	PurchaseLimit int32      `json:"purchase_limit"`
	SaleStart     *time.Time `json:"sale_start,omitempty"`
	SaleEnd       *time.Time `json:"sale_end,omitempty"`
}

// SaleOpen reports whether now falls inside the sale window. Missing bounds are open.
func (t *TicketTypeInfo) SaleOpen(now time.Time) bool {
	if t.SaleStart != nil && now.Before(*t.SaleStart) {
		return false
	}
	if t.SaleEnd != nil && now.After(*t.SaleEnd) {
		return false
	}
	return true
}

// WithinLimit reports whether purchased+reserved+requested fits the purchase limit. Zero means unlimited.
func (t *TicketTypeInfo) WithinLimit(purchased, reserved, requested int64) bool {
	if t.PurchaseLimit <= 0 {
		return true
	}
	return purchased+reserved+requested <= int64(t.PurchaseLimit)
}

type Discount struct {
	ID                 int64      `json:"id"`
	EventID            int64      `json:"event_id"`
	Code               string     `json:"code"`
	DiscountPercent    *int32     `json:"discount_percent,omitempty"`
	DiscountAmount     *int64     `json:"discount_amount,omitempty"`
	MinimumOrderAmount int64      `json:"minimum_order_amount"`
	UsageLimit         *int32     `json:"usage_limit,omitempty"`
	UsedCount          int32      `json:"used_count"`
	ValidFrom          *time.Time `json:"valid_from,omitempty"`
	ValidTo            *time.Time `json:"valid_to,omitempty"`
	Active             bool       `json:"active"`
}

// Validate checks the discount against an order subtotal at now.
func (d *Discount) Validate(now time.Time, subtotal int64) error {
	switch {
	case !d.Active:
		return fmt.Errorf("%w: %s is not active", ErrInvalidDiscount, d.Code)
	case d.ValidFrom != nil && now.Before(*d.ValidFrom):
		return fmt.Errorf("%w: %s is not valid yet", ErrInvalidDiscount, d.Code)
	case d.ValidTo != nil && now.After(*d.ValidTo):
		return fmt.Errorf("%w: %s has expired", ErrInvalidDiscount, d.Code)
	case d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit:
		return fmt.Errorf("%w: %s usage limit reached", ErrInvalidDiscount, d.Code)
	case subtotal < d.MinimumOrderAmount:
		return fmt.Errorf("%w: order total below minimum %d", ErrInvalidDiscount, d.MinimumOrderAmount)
	case (d.DiscountPercent == nil) == (d.DiscountAmount == nil):
		return fmt.Errorf("%w: %s must define exactly one of percent or amount", ErrInvalidDiscount, d.Code)
	}

	return nil
}

// Apply returns subtotal after the discount. Percentages round half up; the result never goes below zero.
func (d *Discount) Apply(subtotal int64) int64 {
	var total int64
	switch {
	case d.DiscountPercent != nil:
		pct := int64(*d.DiscountPercent)
		if pct > 100 {
			pct = 100
		}
		total = (subtotal*(100-pct) + 50) / 100
	case d.DiscountAmount != nil:
		total = subtotal - *d.DiscountAmount
	default:
		total = subtotal
	}

	if total < 0 {
		return 0
	}
	return total
}

// EventPolicy is the refund policy of an event.
type EventPolicy struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	StartTime           time.Time `json:"start_time"`
	RefundEnabled       bool      `json:"refund_enabled"`
	RefundDeadlineHours int32     `json:"refund_deadline_hours"`
	RefundFeePercent    int32     `json:"refund_fee_percent"`
}

// CheckRefund fails when refunds are disabled or now is past start minus the deadline.
func (p *EventPolicy) CheckRefund(now time.Time) error {
	if !p.RefundEnabled {
		return ErrRefundNotAllowed
	}

	deadline := p.StartTime.Add(-time.Duration(p.RefundDeadlineHours) * time.Hour)
	if now.After(deadline) {
		return ErrRefundDeadlinePassed
	}

	return nil
}

// RefundAmount is total minus the refund fee, truncated to whole cents.
func (p *EventPolicy) RefundAmount(total int64) int64 {
	fee := int64(p.RefundFeePercent)
	if fee < 0 {
		fee = 0
	}
	if fee > 100 {
		fee = 100
	}
	return total * (100 - fee) / 100
}

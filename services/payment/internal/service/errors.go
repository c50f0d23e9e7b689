package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPaymentNotPending   = errors.New("payment is no longer pending")
	ErrNotRefundable       = errors.New("payment cannot be refunded")
	ErrRefundExceedsAmount = errors.New("refund exceeds paid amount")
	ErrNotConfirmable      = errors.New("payment is not confirmed through this endpoint")
	ErrWebhookDisabled     = errors.New("webhook provider is not configured")
	ErrMethodMismatch      = errors.New("order already has a payment with another method")
)

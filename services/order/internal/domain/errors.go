package domain

import "errors"

var (
	ErrSaleWindowClosed      = errors.New("ticket sale window is closed")
	ErrPurchaseLimitExceeded = errors.New("purchase limit exceeded")
	ErrInvalidDiscount       = errors.New("invalid discount")
	ErrRefundNotAllowed      = errors.New("refunds are not allowed for this event")
	ErrRefundDeadlinePassed  = errors.New("refund deadline has passed")

	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrInsufficientQuota  = errors.New("insufficient quota")
	ErrDiscountNotFound   = errors.New("discount not found")
	ErrDiscountExhausted  = errors.New("discount usage limit reached")
	ErrEventNotFound      = errors.New("event not found")
	ErrPaymentSettled     = errors.New("payment is already settled")
)

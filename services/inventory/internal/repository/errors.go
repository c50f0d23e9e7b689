package repository

import "errors"

var (
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrInsufficientQuota  = errors.New("insufficient quota")
	ErrDiscountNotFound   = errors.New("discount not found")
	ErrDiscountExhausted  = errors.New("discount usage limit reached")
	ErrEventNotFound      = errors.New("event not found")
)

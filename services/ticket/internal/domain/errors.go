package domain

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

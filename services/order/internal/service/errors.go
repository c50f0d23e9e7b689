package service

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidQuantity    = errors.New("quantity must be positive, and exactly 1 for a seat")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrForbidden          = errors.New("resource belongs to another user")
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrAlreadyTerminal    = errors.New("order is already cancelled or refunded")
)

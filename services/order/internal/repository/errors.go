package repository

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUserNotFound  = errors.New("user not found")

	ErrReservationNotFound       = errors.New("reservation not found")
	ErrSeatUnavailable           = errors.New("seat is already reserved")
	ErrReservationExpired        = errors.New("reservation expired or no longer pending")
	ErrReservationNotCancellable = errors.New("reservation cannot be cancelled")

	ErrPaymentInfoNotFound = errors.New("payment info not found")
	ErrSagaNotFound        = errors.New("saga not found")
)

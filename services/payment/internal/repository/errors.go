package repository

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment already exists for order")
	ErrRefundNotFound  = errors.New("refund not found")
	ErrRefundExists    = errors.New("refund already exists for payment")
)

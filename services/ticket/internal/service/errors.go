package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("tickets belong to another user")
)

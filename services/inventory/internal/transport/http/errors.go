package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/services/inventory/internal/repository"
	"github.com/sakashimaa/eventhub/services/inventory/internal/service"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientQuota = "INSUFFICIENT_QUOTA"
	CodeDiscountExhausted = "DISCOUNT_EXHAUSTED"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInternal          = "INTERNAL"
)

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrTicketTypeNotFound),
		errors.Is(err, repository.ErrDiscountNotFound),
		errors.Is(err, repository.ErrEventNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, repository.ErrInsufficientQuota):
		return fiber.StatusConflict, CodeInsufficientQuota
	case errors.Is(err, repository.ErrDiscountExhausted):
		return fiber.StatusConflict, CodeDiscountExhausted
	case errors.Is(err, service.ErrInvalidQuantity):
		return fiber.StatusBadRequest, CodeInvalidQuantity
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

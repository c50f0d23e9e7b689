package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
	"github.com/sakashimaa/eventhub/services/payment/internal/repository"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
)

const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedMethod = "UNSUPPORTED_METHOD"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeNotPending        = "PAYMENT_NOT_PENDING"
	CodeNotRefundable     = "PAYMENT_NOT_REFUNDABLE"
	CodeNotConfirmable    = "PAYMENT_NOT_CONFIRMABLE"
	CodeWebhookDisabled   = "WEBHOOK_DISABLED"
	CodeMethodMismatch    = "PAYMENT_METHOD_MISMATCH"
	CodeInternal          = "INTERNAL"
)

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrRefundExceedsAmount):
		return fiber.StatusBadRequest, CodeBadRequest
	case errors.Is(err, provider.ErrUnsupportedMethod):
		return fiber.StatusBadRequest, CodeUnsupportedMethod
	case errors.Is(err, provider.ErrInvalidSignature):
		return fiber.StatusBadRequest, CodeInvalidSignature
	case errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrRefundNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrPaymentNotPending):
		return fiber.StatusConflict, CodeNotPending
	case errors.Is(err, service.ErrNotRefundable):
		return fiber.StatusConflict, CodeNotRefundable
	case errors.Is(err, service.ErrNotConfirmable):
		return fiber.StatusConflict, CodeNotConfirmable
	case errors.Is(err, service.ErrMethodMismatch):
		return fiber.StatusConflict, CodeMethodMismatch
	case errors.Is(err, service.ErrWebhookDisabled):
		return fiber.StatusNotFound, CodeWebhookDisabled
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

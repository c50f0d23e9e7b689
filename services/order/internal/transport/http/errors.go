package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeForbidden            = "FORBIDDEN"
	CodeSeatUnavailable      = "SEAT_UNAVAILABLE"
	CodeReservationExpired   = "RESERVATION_EXPIRED"
	CodeNotCancellable       = "RESERVATION_NOT_CANCELLABLE"
	CodeInvalidReservation   = "INVALID_RESERVATION"
	CodePurchaseLimit        = "PURCHASE_LIMIT_EXCEEDED"
	CodeSaleWindowClosed     = "SALE_WINDOW_CLOSED"
	CodeInvalidDiscount      = "INVALID_DISCOUNT"
	CodeInsufficientQuota    = "INSUFFICIENT_QUOTA"
	CodeOrderNotPending      = "ORDER_NOT_PENDING"
	CodeAlreadyTerminal      = "ORDER_ALREADY_TERMINAL"
	CodeRefundNotAllowed     = "REFUND_NOT_ALLOWED"
	CodeRefundDeadlinePassed = "REFUND_DEADLINE_PASSED"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeTimeout              = "UPSTREAM_TIMEOUT"
	CodeUpstream             = "UPSTREAM_ERROR"
	CodeInternal             = "INTERNAL"
)

func mapError(err error) (int, string) {
	var apiErr *httpclient.APIError

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidQuantity):
		return fiber.StatusBadRequest, CodeBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, CodeForbidden
	case errors.Is(err, service.ErrInvalidReservation):
		return fiber.StatusConflict, CodeInvalidReservation
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrPaymentInfoNotFound),
		errors.Is(err, domain.ErrTicketTypeNotFound),
		errors.Is(err, domain.ErrEventNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, repository.ErrSeatUnavailable):
		return fiber.StatusConflict, CodeSeatUnavailable
	case errors.Is(err, repository.ErrReservationExpired):
		return fiber.StatusConflict, CodeReservationExpired
	case errors.Is(err, repository.ErrReservationNotCancellable):
		return fiber.StatusConflict, CodeNotCancellable
	case errors.Is(err, domain.ErrPurchaseLimitExceeded):
		return fiber.StatusConflict, CodePurchaseLimit
	case errors.Is(err, domain.ErrSaleWindowClosed):
		return fiber.StatusConflict, CodeSaleWindowClosed
	case errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrDiscountNotFound),
		errors.Is(err, domain.ErrDiscountExhausted):
		return fiber.StatusUnprocessableEntity, CodeInvalidDiscount
	case errors.Is(err, domain.ErrInsufficientQuota):
		return fiber.StatusConflict, CodeInsufficientQuota
	case errors.Is(err, service.ErrOrderNotPending):
		return fiber.StatusConflict, CodeOrderNotPending
	case errors.Is(err, service.ErrAlreadyTerminal):
		return fiber.StatusConflict, CodeAlreadyTerminal
	case errors.Is(err, domain.ErrRefundNotAllowed):
		return fiber.StatusUnprocessableEntity, CodeRefundNotAllowed
	case errors.Is(err, domain.ErrRefundDeadlinePassed):
		return fiber.StatusUnprocessableEntity, CodeRefundDeadlinePassed
	case errors.Is(err, httpclient.ErrUnavailable):
		return fiber.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, httpclient.ErrTimeout):
		return fiber.StatusGatewayTimeout, CodeTimeout
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway, CodeUpstream
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/repository"
	"github.com/sakashimaa/eventhub/services/ticket/internal/service"
)

const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeForbidden   = "FORBIDDEN"
	CodeNotFound    = "NOT_FOUND"
	CodeUnavailable = "UNAVAILABLE"
	CodeTimeout     = "TIMEOUT"
	CodeInternal    = "INTERNAL"
)

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest, CodeBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, CodeForbidden
	case errors.Is(err, repository.ErrSnapshotNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrTicketTypeNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, httpclient.ErrUnavailable):
		return fiber.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, httpclient.ErrTimeout):
		return fiber.StatusGatewayTimeout, CodeTimeout
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

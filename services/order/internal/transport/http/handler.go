package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	reservations service.ReservationService
	orders       service.OrderService
	validator    *validator.Validate
	logger       *zap.Logger
}

func NewHandler(reservations service.ReservationService, orders service.OrderService, logger *zap.Logger) *Handler {
	return &Handler{
		reservations: reservations,
		orders:       orders,
		validator:    validator.New(),
		logger:       logger,
	}
}

func unauthorized(c *fiber.Ctx) error {
	return utils.RespondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", errors.New("missing user"))
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func badParam(c *fiber.Ctx, name string) error {
	return utils.RespondError(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("invalid "+name))
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status, code := mapError(err)
	if status >= fiber.StatusInternalServerError {
		mylogger.Error(c.UserContext(), h.logger, msg, zap.Error(err))
	} else {
		mylogger.Info(c.UserContext(), h.logger, msg, zap.Int("http_code", status), zap.Error(err))
	}

	return utils.RespondError(c, status, code, err)
}

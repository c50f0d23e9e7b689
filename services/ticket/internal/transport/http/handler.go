package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/auth"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/service"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service   service.TicketService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewTicketHandler(service service.TicketService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *TicketHandler) Count(c *fiber.Ctx) error {
	userID := c.QueryInt("user_id")
	ticketTypeID := c.QueryInt("ticket_type_id")

	n, err := h.service.CountTickets(c.UserContext(), int64(userID), int64(ticketTypeID))
	if err != nil {
		return h.fail(c, "count tickets failed", err)
	}

	return c.JSON(countResponse{Count: n})
}

func (h *TicketHandler) SaveConfig(c *fiber.Ctx) error {
	var req domain.TicketConfig
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	snapshot, err := h.service.SaveConfigSnapshot(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, "save ticket config failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

func (h *TicketHandler) MyTickets(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return utils.RespondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", errors.New("unauthorized"))
	}

	tickets, err := h.service.UserTickets(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "list user tickets failed", err)
	}

	return c.JSON(tickets)
}

func (h *TicketHandler) OrderTickets(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return utils.RespondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", errors.New("unauthorized"))
	}

	orderID, err := c.ParamsInt("orderId")
	if err != nil || orderID <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("invalid order id"))
	}

	tickets, err := h.service.OrderTickets(c.UserContext(), int64(orderID))
	if err != nil {
		return h.fail(c, "list order tickets failed", err)
	}

	for _, t := range tickets {
		if t.UserID != userID {
			return h.fail(c, "list order tickets failed", service.ErrForbidden)
		}
	}

	return c.JSON(tickets)
}

func (h *TicketHandler) fail(c *fiber.Ctx, msg string, err error) error {
	status, code := mapError(err)
	if status >= fiber.StatusInternalServerError {
		mylogger.Error(c.UserContext(), h.logger, msg, zap.Error(err))
	} else {
		mylogger.Info(c.UserContext(), h.logger, msg, zap.Int("http_code", status), zap.Error(err))
	}

	return utils.RespondError(c, status, code, err)
}

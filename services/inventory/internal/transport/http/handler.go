package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/inventory/internal/service"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	service   service.InventoryService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewInventoryHandler(service service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

type quantityRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type quotaResponse struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quota        int64 `json:"quota"`
}

func (h *InventoryHandler) GetTicketType(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, "BAD_REQUEST", errors.New("invalid ticket type id"))
	}

	tt, err := h.service.GetTicketType(c.UserContext(), int64(id))
	if err != nil {
		return h.fail(c, "get ticket type failed", err)
	}

	return c.JSON(tt)
}

func (h *InventoryHandler) DecrementQuota(c *fiber.Ctx) error {
	return h.changeQuota(c, h.service.DecrementQuota)
}

func (h *InventoryHandler) IncrementQuota(c *fiber.Ctx) error {
	return h.changeQuota(c, h.service.IncrementQuota)
}

func (h *InventoryHandler) changeQuota(c *fiber.Ctx, apply func(ctx context.Context, id, quantity int64) (int64, error)) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, "BAD_REQUEST", errors.New("invalid ticket type id"))
	}

	var req quantityRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	quota, err := apply(c.UserContext(), int64(id), req.Quantity)
	if err != nil {
		return h.fail(c, "quota change failed", err)
	}

	return c.JSON(quotaResponse{TicketTypeID: int64(id), Quota: quota})
}

func (h *InventoryHandler) GetDiscount(c *fiber.Ctx) error {
	eventID, err := c.ParamsInt("eventId")
	if err != nil || eventID <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, "BAD_REQUEST", errors.New("invalid event id"))
	}

	d, err := h.service.ValidateDiscount(c.UserContext(), int64(eventID), c.Params("code"))
	if err != nil {
		return h.fail(c, "get discount failed", err)
	}

	return c.JSON(d)
}

func (h *InventoryHandler) IncrementDiscountUsage(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, "BAD_REQUEST", errors.New("invalid discount id"))
	}

	d, err := h.service.IncrementDiscountUsage(c.UserContext(), int64(id))
	if err != nil {
		return h.fail(c, "increment discount usage failed", err)
	}

	return c.JSON(d)
}

func (h *InventoryHandler) GetEvent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, "BAD_REQUEST", errors.New("invalid event id"))
	}

	e, err := h.service.GetEvent(c.UserContext(), int64(id))
	if err != nil {
		return h.fail(c, "get event failed", err)
	}

	return c.JSON(e)
}

func (h *InventoryHandler) fail(c *fiber.Ctx, msg string, err error) error {
	status, code := mapError(err)
	if status >= fiber.StatusInternalServerError {
		mylogger.Error(c.UserContext(), h.logger, msg, zap.Error(err))
	} else {
		mylogger.Info(c.UserContext(), h.logger, msg, zap.Int("http_code", status), zap.Error(err))
	}

	return utils.RespondError(c, status, code, err)
}

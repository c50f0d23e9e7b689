package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service   service.PaymentService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewPaymentHandler(service service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

type confirmRequest struct {
	Success bool `json:"success"`
}

func (h *PaymentHandler) Charge(c *fiber.Ctx) error {
	var req domain.ChargeRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.service.Charge(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "charge failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	var req domain.RefundRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.service.Refund(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "refund failed", err)
	}

	return c.JSON(res)
}

func (h *PaymentHandler) GetByOrder(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("orderId")
	if err != nil || orderID <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("invalid order id"))
	}

	payment, err := h.service.GetByOrder(c.UserContext(), int64(orderID))
	if err != nil {
		return h.fail(c, "get payment failed", err)
	}

	return c.JSON(payment)
}

func (h *PaymentHandler) Void(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("orderId")
	if err != nil || orderID <= 0 {
		return utils.RespondError(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("invalid order id"))
	}

	payment, err := h.service.Void(c.UserContext(), int64(orderID))
	if err != nil {
		return h.fail(c, "void payment failed", err)
	}

	return c.JSON(payment)
}

func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondError(c, fiber.StatusBadRequest, CodeBadRequest, errors.New("invalid request body"))
		}
	}

	payment, err := h.service.ConfirmSimulated(c.UserContext(), c.Params("transactionId"), req.Success)
	if err != nil {
		return h.fail(c, "confirm payment failed", err)
	}

	return c.JSON(payment)
}

func (h *PaymentHandler) StripeWebhook(c *fiber.Ctx) error {
	err := h.service.HandleStripeWebhook(c.UserContext(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return h.fail(c, "stripe webhook failed", err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PaymentHandler) fail(c *fiber.Ctx, msg string, err error) error {
	status, code := mapError(err)
	if status >= fiber.StatusInternalServerError {
		mylogger.Error(c.UserContext(), h.logger, msg, zap.Error(err))
	} else {
		mylogger.Info(c.UserContext(), h.logger, msg, zap.Int("http_code", status), zap.Error(err))
	}

	return utils.RespondError(c, status, code, err)
}

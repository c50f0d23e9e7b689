package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/auth"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
)

type initiatePaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type paymentCallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status" validate:"required,oneof=SUCCESS FAILED PENDING"`
}

type paymentResponse struct {
	OrderID       int64                `json:"order_id"`
	TransactionID string               `json:"transaction_id"`
	Status        domain.PaymentStatus `json:"status"`
	PaymentURL    string               `json:"payment_url,omitempty"`
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req domain.CreateOrderRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}
	req.UserID = userID

	order, err := h.orders.CreateOrder(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "create order failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *Handler) MyOrders(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	orders, err := h.orders.UserOrders(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "list orders failed", err)
	}

	return c.JSON(orders)
}

func (h *Handler) EventOrders(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "eventId")
	if !ok {
		return badParam(c, "event id")
	}

	orders, err := h.orders.EventOrders(c.UserContext(), eventID)
	if err != nil {
		return h.fail(c, "list event orders failed", err)
	}

	return c.JSON(orders)
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "order id")
	}

	order, err := h.orders.GetOrder(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, "get order failed", err)
	}

	return c.JSON(order)
}

func (h *Handler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "order id")
	}

	order, err := h.orders.CancelOrder(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, "cancel order failed", err)
	}

	return c.JSON(order)
}

func (h *Handler) InitiatePayment(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "order id")
	}

	var req initiatePaymentRequest
	if len(c.Body()) > 0 {
		if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
			return err
		}
	}

	outcome, err := h.orders.InitiatePayment(c.UserContext(), userID, id, req.PaymentMethod)
	if err != nil {
		return h.fail(c, "initiate payment failed", err)
	}

	return c.JSON(paymentResponse{
		OrderID:       outcome.OrderID,
		TransactionID: outcome.TransactionID,
		Status:        outcome.Status,
		PaymentURL:    outcome.PaymentURL,
	})
}

func (h *Handler) SoldCount(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "eventId")
	if !ok {
		return badParam(c, "event id")
	}

	ticketTypeID, ok := paramID(c, "ticketTypeId")
	if !ok {
		return badParam(c, "ticket type id")
	}

	sold, err := h.orders.SoldCount(c.UserContext(), eventID, ticketTypeID)
	if err != nil {
		return h.fail(c, "sold count failed", err)
	}

	return c.JSON(fiber.Map{"event_id": eventID, "ticket_type_id": ticketTypeID, "sold": sold})
}

func (h *Handler) PaymentCallback(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "order id")
	}

	var req paymentCallbackRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	order, err := h.orders.ProcessPaymentCallback(c.UserContext(), domain.PaymentOutcome{
		OrderID:       id,
		TransactionID: req.TransactionID,
		Status:        domain.PaymentStatus(req.Status),
	})
	if err != nil {
		return h.fail(c, "payment callback failed", err)
	}

	return c.JSON(fiber.Map{"order_id": order.ID, "status": order.Status})
}

func (h *Handler) OrderDetail(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "order id")
	}

	detail, err := h.orders.OrderDetail(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "order detail failed", err)
	}

	return c.JSON(detail)
}

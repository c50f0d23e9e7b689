package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/auth"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
)

type holdRequest struct {
	EventID      int64  `json:"event_id" validate:"required,gt=0"`
	TicketTypeID int64  `json:"ticket_type_id" validate:"required,gt=0"`
	SeatID       *int64 `json:"seat_id,omitempty" validate:"omitempty,gt=0"`
	Quantity     int32  `json:"quantity" validate:"required,gt=0"`
}

func (r holdRequest) toDomain(userID int64) domain.HoldRequest {
	return domain.HoldRequest{
		UserID:       userID,
		EventID:      r.EventID,
		TicketTypeID: r.TicketTypeID,
		SeatID:       r.SeatID,
		Quantity:     r.Quantity,
	}
}

func (h *Handler) Hold(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req holdRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.reservations.Hold(c.UserContext(), req.toDomain(userID))
	if err != nil {
		return h.fail(c, "hold failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Handler) GetReservation(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "reservation id")
	}

	res, err := h.reservations.GetReservation(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "get reservation failed", err)
	}

	return c.JSON(res)
}

func (h *Handler) UserReservations(c *fiber.Ctx) error {
	callerID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	userID, ok := paramID(c, "userId")
	if !ok {
		return badParam(c, "user id")
	}
	if userID != callerID {
		return utils.RespondError(c, fiber.StatusForbidden, CodeForbidden, errors.New("cannot list reservations of another user"))
	}

	list, err := h.reservations.UserReservations(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "list reservations failed", err)
	}

	return c.JSON(list)
}

func (h *Handler) ConfirmReservation(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "reservation id")
	}

	res, err := h.reservations.Confirm(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, "confirm reservation failed", err)
	}

	return c.JSON(res)
}

func (h *Handler) CancelReservation(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "reservation id")
	}

	res, err := h.reservations.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, "cancel reservation failed", err)
	}

	return c.JSON(res)
}

func (h *Handler) CleanupExpired(c *fiber.Ctx) error {
	n, err := h.reservations.SweepExpired(c.UserContext())
	if err != nil {
		return h.fail(c, "sweep failed", err)
	}

	return c.JSON(fiber.Map{"expired": n})
}

func (h *Handler) SeatAvailability(c *fiber.Ctx) error {
	seatID, ok := paramID(c, "seatId")
	if !ok {
		return badParam(c, "seat id")
	}

	available, err := h.reservations.IsAvailable(c.UserContext(), seatID)
	if err != nil {
		return h.fail(c, "seat availability failed", err)
	}

	return c.JSON(fiber.Map{"seat_id": seatID, "available": available})
}

func (h *Handler) ActiveReservations(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "eventId")
	if !ok {
		return badParam(c, "event id")
	}

	list, err := h.reservations.ActiveReservations(c.UserContext(), eventID)
	if err != nil {
		return h.fail(c, "list active reservations failed", err)
	}

	return c.JSON(list)
}

func (h *Handler) AddToCart(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req holdRequest
	if ok, err := utils.ParseAndValidate(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.reservations.AddOrUpdateCartItem(c.UserContext(), req.toDomain(userID))
	if err != nil {
		return h.fail(c, "add to cart failed", err)
	}

	return c.JSON(res)
}

func (h *Handler) Cart(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	cart, err := h.reservations.Cart(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "get cart failed", err)
	}

	return c.JSON(cart)
}

func (h *Handler) RemoveFromCart(c *fiber.Ctx) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := paramID(c, "id")
	if !ok {
		return badParam(c, "reservation id")
	}

	if err := h.reservations.RemoveCartItem(c.UserContext(), userID, id); err != nil {
		return h.fail(c, "remove cart item failed", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

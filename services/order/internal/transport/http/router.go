package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/auth"
)

// RegisterRoutes mounts the public API behind limiter and auth, and the unauthenticated
// payment callback and internal routes beside it.
func RegisterRoutes(app *fiber.App, h *Handler, limiter fiber.Handler, secret string) {
	api := app.Group("/api", limiter)

	api.Post("/orders/:id/payment-callback", h.PaymentCallback)

	requireUser := auth.RequireUser(secret)

	reservations := api.Group("/reservations", requireUser)
	reservations.Post("/cart", h.AddToCart)
	reservations.Get("/cart", h.Cart)
	reservations.Delete("/cart/:id", h.RemoveFromCart)
	reservations.Post("/cleanup-expired", h.CleanupExpired)
	reservations.Get("/seat-availability/:seatId", h.SeatAvailability)
	reservations.Get("/event/:eventId/active", h.ActiveReservations)
	reservations.Get("/user/:userId", h.UserReservations)
	reservations.Post("/", h.Hold)
	reservations.Get("/:id", h.GetReservation)
	reservations.Post("/:id/confirm", h.ConfirmReservation)
	reservations.Post("/:id/cancel", h.CancelReservation)

	orders := api.Group("/orders", requireUser)
	orders.Post("/", h.CreateOrder)
	orders.Get("/me", h.MyOrders)
	orders.Get("/event/:eventId/ticket-type/:ticketTypeId/sold-count", h.SoldCount)
	orders.Get("/event/:eventId", h.EventOrders)
	orders.Get("/:id", h.GetOrder)
	orders.Put("/:id/cancel", h.CancelOrder)
	orders.Post("/:id/initiate-payment", h.InitiatePayment)

	internal := app.Group("/internal")
	internal.Get("/orders/:id", h.OrderDetail)
}

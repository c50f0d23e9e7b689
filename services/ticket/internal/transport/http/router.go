package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/eventhub/pkg/auth"
)

func RegisterRoutes(app *fiber.App, h *TicketHandler, limiter fiber.Handler, secret string) {
	internal := app.Group("/internal")
	internal.Get("/tickets/count", h.Count)
	internal.Post("/ticket-configs", h.SaveConfig)

	tickets := app.Group("/api/tickets", limiter, auth.RequireUser(secret))
	tickets.Get("/me", h.MyTickets)
	tickets.Get("/order/:orderId", h.OrderTickets)
}

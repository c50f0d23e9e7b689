package http

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *InventoryHandler) {
	internal := app.Group("/internal")

	internal.Get("/ticket-types/:id", h.GetTicketType)
	internal.Post("/ticket-types/:id/decrement", h.DecrementQuota)
	internal.Post("/ticket-types/:id/increment", h.IncrementQuota)

	internal.Get("/events/:id", h.GetEvent)
	internal.Get("/events/:eventId/discounts/:code", h.GetDiscount)
	internal.Post("/discounts/:id/usage", h.IncrementDiscountUsage)
}

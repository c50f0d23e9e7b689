package http

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *PaymentHandler, limiter fiber.Handler) {
	app.Post("/internal/payments", h.Charge)

	internal := app.Group("/internal/payments")
	internal.Post("/refunds", h.Refund)
	internal.Get("/order/:orderId", h.GetByOrder)
	internal.Post("/order/:orderId/void", h.Void)

	app.Post("/payments/:transactionId/confirm", limiter, h.Confirm)
	app.Post("/webhooks/stripe", h.StripeWebhook)
}

package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")

	transactions := api.Group("/transactions", g.Auth...)
	transactions.Get("", h.ListTransactions)
	transactions.Post("", h.CreateTransaction)
	transactions.Post("/initiate", h.InitiatePayment)
	transactions.Get("/:id", h.GetTransaction)
	transactions.Post("/:id/confirm", h.ConfirmPayment)
}

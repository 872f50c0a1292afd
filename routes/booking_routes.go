package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", g.Auth...)
	booking.Get("", h.ListBookings)
	booking.Post("", h.CreateBooking)
	booking.Get("/:id", h.GetBooking)
	booking.Post("/:id/accept", h.AcceptBooking)
	booking.Post("/:id/reject", h.RejectBooking)
	booking.Post("/:id/complete", h.CompleteBooking)
}

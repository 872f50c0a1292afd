package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func ReviewRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")

	reviews := api.Group("/reviews")
	reviews.Get("", h.ListReviews)
	reviews.Post("", with(g.Auth, h.CreateReview)...)
	reviews.Get("/:id", h.GetReview)
}

package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")

	api.Get("/users/me", with(g.Auth, h.GetMe)...)
	api.Patch("/users/me", with(g.Auth, h.UpdateMe)...)
	api.Get("/users/:id", with(g.Auth, h.GetUser)...)
}

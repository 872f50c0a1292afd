package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/token", h.Login)
	auth.Post("/token/refresh", h.RefreshToken)

	google := auth.Group("/google")
	google.Get("/url", h.GoogleAuthURL)
	google.Post("", h.GoogleSignIn)
	google.Get("/callback", h.GoogleCallback)
	google.Post("/callback", h.GoogleCallback)
}

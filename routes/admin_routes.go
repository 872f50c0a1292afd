package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")
	admin := g.admin()

	api.Get("/mentors/pending", with(admin, h.ListPendingMentors)...)
	api.Post("/mentors/:id/approve", with(admin, h.ApproveMentor)...)
	api.Post("/mentors/:id/reject", with(admin, h.RejectMentor)...)

	api.Get("/users", with(admin, h.ListUsers)...)
}

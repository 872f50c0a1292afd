package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/gofiber/fiber/v2"
)

func MentorRoutes(app *fiber.App, h *handlers.Handler, g Guards) {
	api := app.Group("/api/v1")

	mentors := api.Group("/mentors")
	mentors.Get("", g.Optional, h.ListMentors)
	mentors.Post("", with(g.Auth, h.ApplyAsMentor)...)
	mentors.Get("/earnings", with(g.Auth, h.MentorEarnings)...)
	mentors.Get("/upload-signature", with(g.Auth, h.UploadSignature)...)
	mentors.Get("/:id", g.Optional, h.GetMentor)
	mentors.Patch("/:id", with(g.Auth, h.UpdateMentor)...)
}

package handlers

import (
	"github.com/anjiri1684/unimentor/middleware"
	"github.com/gofiber/fiber/v2"
)

// UploadSignature signs a direct upload of the caller's verification document.
func (h *Handler) UploadSignature(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	sig, err := h.uploads.Sign(actor.ID.String())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(sig)
}

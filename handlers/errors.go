package handlers

import (
	"errors"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/oauth"
	"github.com/anjiri1684/unimentor/services"
	"github.com/anjiri1684/unimentor/uploads"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes the status matching err's category.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var status int
	var code string
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrForbidden):
		status, code = fiber.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		status, code = fiber.StatusConflict, "conflict"
	case errors.Is(err, services.ErrInvalidState):
		status, code = fiber.StatusConflict, "invalid_state"
	case errors.Is(err, services.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "invalid_input"
	case errors.Is(err, oauth.ErrNotConfigured), errors.Is(err, uploads.ErrNotConfigured):
		status, code = fiber.StatusServiceUnavailable, "not_configured"
	default:
		h.log.Error("request failed",
			zap.String(logger.FieldMethod, c.Method()),
			zap.String(logger.FieldPath, c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID format"})
}

package handlers

import (
	"github.com/anjiri1684/unimentor/middleware"
	"github.com/anjiri1684/unimentor/services"
	"github.com/gofiber/fiber/v2"
)

type UpdateMeRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Handle    *string `json:"handle" validate:"omitempty,max=150"`
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	user, err := h.identity.Get(c.UserContext(), actor, actor.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var req UpdateMeRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	user, err := h.identity.UpdateMe(c.UserContext(), middleware.CurrentActor(c), services.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Handle:    req.Handle,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.identity.List(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	user, err := h.identity.Get(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(user)
}

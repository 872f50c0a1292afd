package handlers

import (
	"github.com/anjiri1684/unimentor/middleware"
	"github.com/anjiri1684/unimentor/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	MentorID string `json:"mentor_id" validate:"required,uuid"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment" validate:"max=2000"`
}

// CreateReview leaves the rating range check to the service so out-of-range ratings are
// reported like any other invalid input.
func (h *Handler) CreateReview(c *fiber.Ctx) error {
	var req CreateReviewRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	mentorID, _ := uuid.Parse(req.MentorID)

	review, err := h.reviews.Create(c.UserContext(), middleware.CurrentActor(c), services.NewReview{
		MentorID: mentorID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *Handler) ListReviews(c *fiber.Ctx) error {
	var mentorID *uuid.UUID
	if raw := c.Query("mentor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return invalidID(c)
		}
		mentorID = &id
	}

	reviews, err := h.reviews.List(c.UserContext(), mentorID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(reviews)
}

func (h *Handler) GetReview(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	review, err := h.reviews.Get(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(review)
}

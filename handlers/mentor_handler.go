package handlers

import (
	"strconv"
	"time"

	"github.com/anjiri1684/unimentor/middleware"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/services"
	"github.com/gofiber/fiber/v2"
)

type AvailabilityWindowRequest struct {
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end" validate:"required"`
}

type MentorApplicationRequest struct {
	University              *string                     `json:"university" validate:"omitempty,max=255"`
	Program                 *string                     `json:"program" validate:"omitempty,max=255"`
	Year                    *int                        `json:"year" validate:"omitempty,min=0,max=20"`
	Achievements            *string                     `json:"achievements"`
	Languages               *string                     `json:"languages" validate:"omitempty,max=255"`
	Availability            []AvailabilityWindowRequest `json:"availability" validate:"omitempty,dive"`
	HourlyRate              *float64                    `json:"hourly_rate" validate:"omitempty,min=0"`
	VerificationDocumentURL *string                     `json:"verification_document_url" validate:"omitempty,url,max=255"`
}

func (r MentorApplicationRequest) fields() services.ApplicationFields {
	f := services.ApplicationFields{
		University:              r.University,
		Program:                 r.Program,
		Year:                    r.Year,
		Achievements:            r.Achievements,
		Languages:               r.Languages,
		HourlyRate:              r.HourlyRate,
		VerificationDocumentURL: r.VerificationDocumentURL,
	}
	if r.Availability != nil {
		f.Availability = make([]models.AvailabilityWindow, 0, len(r.Availability))
		for _, w := range r.Availability {
			f.Availability = append(f.Availability, models.AvailabilityWindow{Start: *w.Start, End: *w.End})
		}
	}
	return f
}

type MentorListQuery struct {
	Language   string `query:"language"`
	University string `query:"university"`
	Program    string `query:"program"`
	Year       string `query:"year"`
	MinRate    string `query:"min_rate"`
	MaxRate    string `query:"max_rate"`
	Search     string `query:"search"`
	Ordering   string `query:"ordering"`
}

func (q MentorListQuery) filter() (services.MentorFilter, error) {
	f := services.MentorFilter{
		Language:   q.Language,
		University: q.University,
		Program:    q.Program,
		Search:     q.Search,
		Ordering:   q.Ordering,
	}
	if q.Year != "" {
		year, err := strconv.Atoi(q.Year)
		if err != nil {
			return f, err
		}
		f.Year = &year
	}
	if q.MinRate != "" {
		rate, err := strconv.ParseFloat(q.MinRate, 64)
		if err != nil {
			return f, err
		}
		f.MinRate = &rate
	}
	if q.MaxRate != "" {
		rate, err := strconv.ParseFloat(q.MaxRate, 64)
		if err != nil {
			return f, err
		}
		f.MaxRate = &rate
	}
	return f, nil
}

func (h *Handler) ApplyAsMentor(c *fiber.Ctx) error {
	var req MentorApplicationRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	app, err := h.mentors.Apply(c.UserContext(), middleware.CurrentActor(c), req.fields())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *Handler) ListMentors(c *fiber.Ctx) error {
	var q MentorListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query parameters"})
	}
	filter, err := q.filter()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query parameters"})
	}

	apps, err := h.mentors.List(c.UserContext(), middleware.CurrentActor(c), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(apps)
}

func (h *Handler) ListPendingMentors(c *fiber.Ctx) error {
	apps, err := h.mentors.ListPending(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(apps)
}

func (h *Handler) GetMentor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	app, err := h.mentors.Get(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(app)
}

func (h *Handler) UpdateMentor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req MentorApplicationRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	app, err := h.mentors.Update(c.UserContext(), middleware.CurrentActor(c), id, req.fields())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(app)
}

func (h *Handler) ApproveMentor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	app, err := h.mentors.Approve(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Application approved", "application": app})
}

func (h *Handler) RejectMentor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	app, err := h.mentors.Reject(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Application rejected", "application": app})
}

func (h *Handler) MentorEarnings(c *fiber.Ctx) error {
	earnings, err := h.mentors.Earnings(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(earnings)
}

package handlers

import (
	"context"
	"time"

	"github.com/anjiri1684/unimentor/middleware"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/anjiri1684/unimentor/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	MentorID  string     `json:"mentor_id" validate:"required,uuid"`
	SlotTime  *time.Time `json:"slot_time" validate:"required"`
	PaymentID string     `json:"payment_id" validate:"max=64"`
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	mentorID, _ := uuid.Parse(req.MentorID)

	booking, err := h.bookings.Create(c.UserContext(), middleware.CurrentActor(c), services.NewBooking{
		MentorID:  mentorID,
		SlotTime:  *req.SlotTime,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) ListBookings(c *fiber.Ctx) error {
	status := models.BookingStatus(c.Query("status"))
	switch status {
	case "", models.BookingPending, models.BookingAccepted, models.BookingRejected, models.BookingCompleted:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}

	bookings, err := h.bookings.List(c.UserContext(), middleware.CurrentActor(c), status)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(bookings)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, h.bookings.Get)
}

func (h *Handler) AcceptBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, h.bookings.Accept)
}

func (h *Handler) RejectBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, h.bookings.Reject)
}

func (h *Handler) CompleteBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, h.bookings.Complete)
}

type bookingOp func(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Booking, error)

func (h *Handler) bookingAction(c *fiber.Ctx, op bookingOp) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	booking, err := op(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(booking)
}

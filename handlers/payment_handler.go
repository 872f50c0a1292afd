package handlers

import (
	"github.com/anjiri1684/unimentor/middleware"
	"github.com/anjiri1684/unimentor/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateTransactionRequest struct {
	BookingID       string  `json:"booking_id" validate:"required,uuid"`
	Amount          float64 `json:"amount" validate:"min=0"`
	PaymentProvider string  `json:"payment_provider" validate:"max=50"`
	ExternalID      string  `json:"external_id" validate:"max=128"`
}

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req CreateTransactionRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	txn, err := h.transactions.Create(c.UserContext(), middleware.CurrentActor(c), services.NewTransaction{
		BookingID:  bookingID,
		Amount:     req.Amount,
		Provider:   req.PaymentProvider,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	var bookingID *uuid.UUID
	if raw := c.Query("booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return invalidID(c)
		}
		bookingID = &id
	}

	txns, err := h.transactions.List(c.UserContext(), middleware.CurrentActor(c), bookingID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(txns)
}

func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	txn, err := h.transactions.Get(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(txn)
}

// InitiatePayment answers 200 with status "skipped" while no processor is integrated.
func (h *Handler) InitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	result, err := h.transactions.Initiate(c.UserContext(), middleware.CurrentActor(c), bookingID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) ConfirmPayment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	result, err := h.transactions.Confirm(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

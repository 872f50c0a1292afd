package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/payments"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultProvider    = "stub"
	notIntegratedNotes = "Payment flow placeholder: no payment provider is integrated"
)

type NewTransaction struct {
	BookingID  uuid.UUID
	Amount     float64
	Provider   string
	ExternalID string
}

// PaymentResult reports the outcome of a payment call. Integrated is false when no
// processor was contacted, which is distinct from a failed payment.
type PaymentResult struct {
	Status      models.TransactionStatus `json:"status"`
	Integrated  bool                     `json:"integrated"`
	Message     string                   `json:"message"`
	Transaction *models.Transaction      `json:"transaction,omitempty"`
}

type TransactionService struct {
	db       *gorm.DB
	gateway  payments.Gateway
	provider string
	log      *zap.Logger
}

func NewTransactionService(db *gorm.DB, gateway payments.Gateway, log *zap.Logger) *TransactionService {
	return &TransactionService{
		db:       db,
		gateway:  gateway,
		provider: defaultProvider,
		log:      log.With(zap.String(logger.FieldService, "transaction")),
	}
}

func (s *TransactionService) bookingFor(ctx context.Context, actor policy.Actor, bookingID uuid.UUID, action policy.Action) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, lookupErr("booking", err)
	}
	target := policy.TransactionTarget{Booking: policy.BookingOf(&booking)}
	if !policy.Visible(actor, target) {
		return nil, notFound("booking")
	}
	if err := policy.Authorize(actor, action, target); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create records a payment attempt against a booking in the pending state.
func (s *TransactionService) Create(ctx context.Context, actor policy.Actor, in NewTransaction) (*models.Transaction, error) {
	if _, err := s.bookingFor(ctx, actor, in.BookingID, policy.TransactionCreate); err != nil {
		return nil, err
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		provider = s.provider
	}
	txn := models.Transaction{
		BookingID:  in.BookingID,
		Amount:     in.Amount,
		Provider:   provider,
		Status:     models.TransactionPending,
		ExternalID: in.ExternalID,
	}
	if err := s.db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.log.Info("transaction recorded",
		zap.String(logger.FieldTransactionID, txn.ID.String()),
		zap.String(logger.FieldBookingID, txn.BookingID.String()),
	)
	return &txn, nil
}

func (s *TransactionService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, lookupErr("transaction", err)
	}
	if _, err := s.bookingFor(ctx, actor, txn.BookingID, policy.TransactionView); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("transaction")
		}
		return nil, err
	}
	return &txn, nil
}

// List returns transactions on bookings the actor takes part in, newest first.
func (s *TransactionService) List(ctx context.Context, actor policy.Actor, bookingID *uuid.UUID) ([]models.Transaction, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, policy.TransactionView)
	}
	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if !actor.IsAdmin() {
		q = q.Where("booking_id IN (?)",
			s.db.Model(&models.Booking{}).Select("id").Where("student_id = ? OR mentor_id = ?", actor.ID, actor.ID),
		)
	}
	if bookingID != nil {
		q = q.Where("booking_id = ?", *bookingID)
	}

	txns := []models.Transaction{}
	if err := q.Order("created_at desc").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// Initiate starts a payment for a booking, charged at the mentor's hourly rate.
func (s *TransactionService) Initiate(ctx context.Context, actor policy.Actor, bookingID uuid.UUID) (*PaymentResult, error) {
	booking, err := s.bookingFor(ctx, actor, bookingID, policy.PaymentInitiate)
	if err != nil {
		return nil, err
	}

	var app models.MentorApplication
	err = s.db.WithContext(ctx).Select("hourly_rate").Where("user_id = ?", booking.MentorID).First(&app).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load mentor rate: %w", err)
	}

	receipt, err := s.gateway.Initiate(ctx, payments.Charge{BookingID: booking.ID, Amount: app.HourlyRate})
	if errors.Is(err, payments.ErrNotIntegrated) {
		return skipped(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}
	if receipt == nil {
		receipt = &payments.Receipt{}
	}

	txn := models.Transaction{
		BookingID:  booking.ID,
		Amount:     app.HourlyRate,
		Provider:   s.provider,
		Status:     receiptStatus(receipt),
		ExternalID: receipt.ExternalID,
	}
	if err := s.db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return &PaymentResult{Status: txn.Status, Integrated: true, Transaction: &txn}, nil
}

// Confirm settles a previously initiated payment.
func (s *TransactionService) Confirm(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PaymentResult, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, lookupErr("transaction", err)
	}
	if _, err := s.bookingFor(ctx, actor, txn.BookingID, policy.PaymentConfirm); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("transaction")
		}
		return nil, err
	}

	receipt, err := s.gateway.Confirm(ctx, txn.ExternalID)
	if errors.Is(err, payments.ErrNotIntegrated) {
		return skipped(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	status := receiptStatus(receipt)
	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionPending).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, txn.Status)
	}
	txn.Status = status
	return &PaymentResult{Status: status, Integrated: true, Transaction: &txn}, nil
}

func skipped() *PaymentResult {
	return &PaymentResult{
		Status:     models.TransactionSkipped,
		Integrated: false,
		Message:    notIntegratedNotes,
	}
}

func receiptStatus(r *payments.Receipt) models.TransactionStatus {
	if r != nil && r.Succeeded {
		return models.TransactionSuccess
	}
	return models.TransactionFailed
}

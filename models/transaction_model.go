package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
	TransactionSkipped TransactionStatus = "skipped"
)

// Transaction is a payment attempt against a booking.
type Transaction struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	BookingID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"booking_id"`
	Amount     float64           `gorm:"type:numeric(10,2);not null" json:"amount"`
	Provider   string            `gorm:"size:50" json:"payment_provider"`
	Status     TransactionStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	ExternalID string            `gorm:"size:128" json:"external_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
)

// Terminal reports whether no transition leaves the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCompleted
}

type Booking struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	StudentID uuid.UUID     `gorm:"type:uuid;not null;index" json:"student_id"`
	MentorID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"mentor_id"`
	SlotTime  time.Time     `gorm:"not null" json:"slot_time"`
	Status    BookingStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	PaymentID string        `gorm:"size:64" json:"payment_id"`
	MeetLink  string        `gorm:"size:255" json:"meet_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

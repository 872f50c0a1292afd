package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// MentorApplication is the mentor profile a user submits for admin review. One per user.
type MentorApplication struct {
	ID                      uuid.UUID                                 `gorm:"type:uuid;primary_key" json:"id"`
	UserID                  uuid.UUID                                 `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	University              string                                    `gorm:"size:255" json:"university"`
	Program                 string                                    `gorm:"size:255" json:"program"`
	Year                    *int                                      `json:"year"`
	Achievements            string                                    `gorm:"type:text" json:"achievements"`
	Languages               string                                    `gorm:"size:255" json:"languages"`
	Availability            datatypes.JSONType[[]AvailabilityWindow] `json:"availability"`
	HourlyRate              float64                                   `gorm:"type:numeric(10,2);not null;default:0" json:"hourly_rate"`
	VerificationDocumentURL string                                    `gorm:"size:255" json:"verification_document_url"`
	Status                  ApplicationStatus                         `gorm:"size:16;not null;default:'pending';index" json:"status"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *MentorApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AvailabilityWindows returns the decoded availability list, never nil.
func (a *MentorApplication) AvailabilityWindows() []AvailabilityWindow {
	windows := a.Availability.Data()
	if windows == nil {
		return []AvailabilityWindow{}
	}
	return windows
}

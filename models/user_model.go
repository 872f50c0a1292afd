package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxHandleLength is the width of the handle column.
const MaxHandleLength = 150

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email             string    `gorm:"size:255;not null;unique" json:"email"`
	Handle            *string   `gorm:"size:150;unique" json:"handle"`
	FirstName         string    `gorm:"size:150" json:"first_name"`
	LastName          string    `gorm:"size:150" json:"last_name"`
	Password          string    `gorm:"size:255" json:"-"`
	Role              Role      `gorm:"size:16;not null;default:'student'" json:"role"`
	GoogleID          *string   `gorm:"size:100;unique" json:"-"`
	ProfilePictureURL *string   `gorm:"size:255" json:"profile_picture_url"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

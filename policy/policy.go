// Package policy decides whether an authenticated actor may perform an action on a target.
//
// Rules are evaluated in order: admins may always act, then ownership relations
// (student-of, mentor-of, owner-of) and role capabilities decide the rest.
package policy

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/unimentor/models"
	"github.com/google/uuid"
)

var ErrForbidden = errors.New("permission denied")

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

func (a Actor) IsAdmin() bool { return a.Role.IsAdmin() }

type Action string

const (
	BookingCreate   Action = "booking:create"
	BookingView     Action = "booking:view"
	BookingAccept   Action = "booking:accept"
	BookingReject   Action = "booking:reject"
	BookingComplete Action = "booking:complete"

	ApplicationCreate      Action = "application:create"
	ApplicationView        Action = "application:view"
	ApplicationUpdate      Action = "application:update"
	ApplicationApprove     Action = "application:approve"
	ApplicationReject      Action = "application:reject"
	ApplicationListPending Action = "application:list-pending"

	ReviewCreate Action = "review:create"
	ReviewView   Action = "review:view"

	UserView    Action = "user:view"
	UserList    Action = "user:list"
	UserUpdate  Action = "user:update"
	UserPromote Action = "user:promote"

	TransactionCreate Action = "transaction:create"
	TransactionView   Action = "transaction:view"
	PaymentInitiate   Action = "payment:initiate"
	PaymentConfirm    Action = "payment:confirm"

	EarningsView Action = "earnings:view"
)

// Target is the entity an action is performed on.
type Target interface {
	target()
}

type BookingTarget struct {
	StudentID uuid.UUID
	MentorID  uuid.UUID
}

type ApplicationTarget struct {
	OwnerID uuid.UUID
	Status  models.ApplicationStatus
}

type ReviewTarget struct{}

type UserTarget struct {
	ID uuid.UUID
}

// TransactionTarget is authorized through the booking it belongs to.
type TransactionTarget struct {
	Booking BookingTarget
}

// EarningsTarget is the caller's own mentor ledger.
type EarningsTarget struct{}

func (BookingTarget) target()     {}
func (ApplicationTarget) target() {}
func (ReviewTarget) target()      {}
func (UserTarget) target()        {}
func (TransactionTarget) target() {}
func (EarningsTarget) target()    {}

func BookingOf(b *models.Booking) BookingTarget {
	return BookingTarget{StudentID: b.StudentID, MentorID: b.MentorID}
}

func ApplicationOf(a *models.MentorApplication) ApplicationTarget {
	return ApplicationTarget{OwnerID: a.UserID, Status: a.Status}
}

func (t BookingTarget) participant(id uuid.UUID) bool {
	return id == t.StudentID || id == t.MentorID
}

// Authorize returns nil when actor may perform action on target, or an error wrapping ErrForbidden.
func Authorize(actor Actor, action Action, target Target) error {
	if actor.ID == uuid.Nil {
		return deny(action)
	}
	if actor.IsAdmin() {
		return nil
	}
	if allowed(actor, action, target) {
		return nil
	}
	return deny(action)
}

// Visible reports whether the target exists as far as actor is concerned. Entities that are
// not visible must be reported as not found rather than forbidden.
func Visible(actor Actor, target Target) bool {
	switch target.(type) {
	case BookingTarget:
		return Authorize(actor, BookingView, target) == nil
	case TransactionTarget:
		return Authorize(actor, TransactionView, target) == nil
	case ApplicationTarget:
		return Authorize(actor, ApplicationView, target) == nil
	case UserTarget:
		return Authorize(actor, UserView, target) == nil
	}
	return true
}

func allowed(actor Actor, action Action, target Target) bool {
	switch t := target.(type) {
	case BookingTarget:
		switch action {
		case BookingCreate:
			return actor.Role.CanBook() && t.StudentID == actor.ID
		case BookingView, BookingComplete:
			return t.participant(actor.ID)
		case BookingAccept, BookingReject:
			return t.MentorID == actor.ID
		}
	case ApplicationTarget:
		switch action {
		case ApplicationCreate, ApplicationUpdate:
			return t.OwnerID == actor.ID
		case ApplicationView:
			return t.OwnerID == actor.ID || t.Status == models.ApplicationApproved
		}
	case ReviewTarget:
		switch action {
		case ReviewCreate:
			return actor.Role.CanBook()
		case ReviewView:
			return true
		}
	case UserTarget:
		switch action {
		case UserView, UserUpdate:
			return t.ID == actor.ID
		}
	case TransactionTarget:
		switch action {
		case TransactionCreate, TransactionView, PaymentInitiate, PaymentConfirm:
			return t.Booking.participant(actor.ID)
		}
	case EarningsTarget:
		return action == EarningsView && actor.Role.IsMentor()
	}
	return false
}

func deny(action Action) error {
	return fmt.Errorf("%w: %s", ErrForbidden, action)
}

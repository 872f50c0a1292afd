package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/notifications"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notifyTimeout = 10 * time.Second

type NewBooking struct {
	MentorID  uuid.UUID
	SlotTime  time.Time
	PaymentID string
}

type BookingService struct {
	db             *gorm.DB
	notifier       notifications.Notifier
	meetingBaseURL string
	log            *zap.Logger
}

func NewBookingService(db *gorm.DB, notifier notifications.Notifier, meetingBaseURL string, log *zap.Logger) *BookingService {
	return &BookingService{
		db:             db,
		notifier:       notifier,
		meetingBaseURL: meetingBaseURL,
		log:            log.With(zap.String(logger.FieldService, "booking")),
	}
}

// MeetLink is the joining reference for a booking. It depends only on the booking id.
func (s *BookingService) MeetLink(id uuid.UUID) string {
	return s.meetingBaseURL + id.String()
}

// Create books a session with a mentor. The actor always becomes the booking's student.
func (s *BookingService) Create(ctx context.Context, actor policy.Actor, in NewBooking) (*models.Booking, error) {
	booking := models.Booking{
		StudentID: actor.ID,
		MentorID:  in.MentorID,
		SlotTime:  in.SlotTime,
		Status:    models.BookingPending,
		PaymentID: in.PaymentID,
	}
	if err := policy.Authorize(actor, policy.BookingCreate, policy.BookingOf(&booking)); err != nil {
		return nil, err
	}
	if in.SlotTime.IsZero() {
		return nil, fmt.Errorf("%w: slot_time is required", ErrInvalidInput)
	}
	if in.MentorID == actor.ID {
		return nil, fmt.Errorf("%w: cannot book a session with yourself", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	var mentor models.User
	if err := db.Select("id", "role").First(&mentor, "id = ?", in.MentorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: mentor does not exist", ErrInvalidInput)
		}
		return nil, fmt.Errorf("load mentor: %w", err)
	}
	if !mentor.Role.IsMentor() {
		return nil, fmt.Errorf("%w: user is not a mentor", ErrInvalidInput)
	}

	if err := db.Create(&booking).Error; err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking created",
		zap.String(logger.FieldBookingID, booking.ID.String()),
		zap.String(logger.FieldUserID, actor.ID.String()),
	)
	return &booking, nil
}

func (s *BookingService) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, lookupErr("booking", err)
	}
	return &booking, nil
}

// loadFor returns the booking if actor may see it, then checks action. Bookings the actor is
// not party to are reported as not found.
func (s *BookingService) loadFor(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	target := policy.BookingOf(booking)
	if !policy.Visible(actor, target) {
		return nil, notFound("booking")
	}
	if err := policy.Authorize(actor, action, target); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.loadFor(ctx, actor, id, policy.BookingView)
}

// List returns the bookings the actor takes part in, newest first. Admins see all bookings.
func (s *BookingService) List(ctx context.Context, actor policy.Actor, status models.BookingStatus) ([]models.Booking, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, policy.BookingView)
	}
	q := s.db.WithContext(ctx).Model(&models.Booking{})
	if !actor.IsAdmin() {
		q = q.Where("student_id = ? OR mentor_id = ?", actor.ID, actor.ID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	bookings := []models.Booking{}
	if err := q.Order("created_at desc").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Accept moves a pending booking to accepted and assigns its meet link. Accepting an
// already accepted booking succeeds without changing anything.
func (s *BookingService) Accept(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Booking, error) {
	if _, err := s.loadFor(ctx, actor, id, policy.BookingAccept); err != nil {
		return nil, err
	}

	transitioned := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, models.BookingPending).
			Update("status", models.BookingAccepted)
		if res.Error != nil {
			return fmt.Errorf("accept booking: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Booking
			if err := tx.Select("status").First(&current, "id = ?", id).Error; err != nil {
				return lookupErr("booking", err)
			}
			if current.Status != models.BookingAccepted {
				return fmt.Errorf("%w: booking is %s", ErrInvalidState, current.Status)
			}
		} else {
			transitioned = true
		}

		err := tx.Model(&models.Booking{}).
			Where("id = ? AND (meet_link IS NULL OR meet_link = '')", id).
			Update("meet_link", s.MeetLink(id)).Error
		if err != nil {
			return fmt.Errorf("assign meet link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.log.Info("booking accepted", zap.String(logger.FieldBookingID, id.String()))
		go s.notify(booking.ID, booking.SlotTime)
	}
	return booking, nil
}

func (s *BookingService) notify(bookingID uuid.UUID, slotTime time.Time) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, bookingID, slotTime); err != nil {
		s.log.Warn("session reminder failed",
			zap.String(logger.FieldBookingID, bookingID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) Reject(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, actor, id, policy.BookingReject, models.BookingPending, models.BookingRejected)
}

func (s *BookingService) Complete(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, actor, id, policy.BookingComplete, models.BookingAccepted, models.BookingCompleted)
}

func (s *BookingService) transition(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action, from, to models.BookingStatus) (*models.Booking, error) {
	booking, err := s.loadFor(ctx, actor, id, action)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, fmt.Errorf("update booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: cannot move booking from %s to %s", ErrInvalidState, current.Status, to)
	}

	s.log.Info("booking status changed",
		zap.String(logger.FieldBookingID, booking.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return s.load(ctx, id)
}

package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reminderLead   = 60 * time.Minute
	reminderWindow = 5 * time.Minute
)

// SessionReminders notifies accepted bookings whose session starts in about an hour. It is
// meant to run every reminderWindow so each booking falls into exactly one run.
type SessionReminders struct {
	db       *gorm.DB
	notifier notifications.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewSessionReminders(db *gorm.DB, notifier notifications.Notifier, log *zap.Logger) *SessionReminders {
	return &SessionReminders{
		db:       db,
		notifier: notifier,
		log:      log.With(zap.String(logger.FieldOperation, "session_reminders")),
		now:      time.Now,
	}
}

func (j *SessionReminders) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, err := j.Send(ctx)
	if err != nil {
		j.log.Error("checking upcoming sessions failed", zap.Error(err))
		return
	}
	if sent > 0 {
		j.log.Info("session reminders sent", zap.Int("count", sent))
	}
}

func (j *SessionReminders) Send(ctx context.Context) (int, error) {
	now := j.now()
	lower := now.Add(reminderLead)
	upper := lower.Add(reminderWindow)

	var upcoming []models.Booking
	err := j.db.WithContext(ctx).
		Where("status = ? AND slot_time >= ? AND slot_time < ?", models.BookingAccepted, lower, upper).
		Find(&upcoming).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range upcoming {
		if err := j.notifier.Notify(ctx, b.ID, b.SlotTime); err != nil {
			j.log.Warn("session reminder failed",
				zap.String(logger.FieldBookingID, b.ID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent, nil
}

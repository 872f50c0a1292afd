package notifications

import (
	"context"
	"time"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a session reminder for an accepted booking. Callers treat it as
// fire-and-forget: a failed notification never fails the booking operation.
type Notifier interface {
	Notify(ctx context.Context, bookingID uuid.UUID, slotTime time.Time) error
}

// LogNotifier records reminders in the application log in place of a delivery channel.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, bookingID uuid.UUID, slotTime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("session reminder queued",
		zap.String(logger.FieldBookingID, bookingID.String()),
		zap.Time("slot_time", slotTime),
	)
	return nil
}

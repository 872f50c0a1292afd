package jobs

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CleanupHandles backfills missing handles with the user's email address.
type CleanupHandles struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
}

func NewCleanupHandles(db *gorm.DB, log *zap.Logger) *CleanupHandles {
	return &CleanupHandles{
		db:      db,
		log:     log.With(zap.String(logger.FieldOperation, "cleanup_handles")),
		timeout: time.Minute,
	}
}

// Run satisfies cron.Job.
func (j *CleanupHandles) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	fixed, err := j.Cleanup(ctx)
	if err != nil {
		j.log.Error("handle cleanup failed", zap.Error(err))
		return
	}
	j.log.Info("handle cleanup finished", zap.Int("fixed", fixed))
}

// Cleanup assigns handle = email to every user without a handle, unless another user
// already holds that handle or the email does not fit the handle column. It returns how many users were updated.
func (j *CleanupHandles) Cleanup(ctx context.Context) (int, error) {
	db := j.db.WithContext(ctx)

	var users []models.User
	if err := db.Select("id", "email").Where("handle IS NULL OR handle = ''").Find(&users).Error; err != nil {
		return 0, err
	}

	fixed := 0
	for _, u := range users {
		if utf8.RuneCountInString(u.Email) > models.MaxHandleLength {
			j.log.Warn("email too long for a handle, skipping user",
				zap.String(logger.FieldUserID, u.ID.String()),
			)
			continue
		}
		var taken int64
		if err := db.Model(&models.User{}).Where("handle = ? AND id <> ?", u.Email, u.ID).Count(&taken).Error; err != nil {
			return fixed, err
		}
		if taken > 0 {
			j.log.Warn("handle already taken, skipping user",
				zap.String(logger.FieldUserID, u.ID.String()),
			)
			continue
		}
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("handle", u.Email).Error; err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

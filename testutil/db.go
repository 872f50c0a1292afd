// Package testutil provides an in-memory database and fixtures for service and handler tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/anjiri1684/unimentor/database"
	"github.com/anjiri1684/unimentor/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(0)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// CreateUser inserts an active user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateApplication inserts a mentor application for userID in the given status.
func CreateApplication(t *testing.T, db *gorm.DB, userID uuid.UUID, status models.ApplicationStatus, rate float64) *models.MentorApplication {
	t.Helper()

	app := &models.MentorApplication{
		UserID:       userID,
		Status:       status,
		HourlyRate:   rate,
		Availability: datatypes.NewJSONType([]models.AvailabilityWindow{}),
	}
	require.NoError(t, db.Omit(clause.Associations).Create(app).Error)
	return app
}

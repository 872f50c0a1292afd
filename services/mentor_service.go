package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationFields are the descriptive fields an applicant controls.
type ApplicationFields struct {
	University              *string
	Program                 *string
	Year                    *int
	Achievements            *string
	Languages               *string
	Availability            []models.AvailabilityWindow
	HourlyRate              *float64
	VerificationDocumentURL *string
}

type MentorFilter struct {
	Language   string
	University string
	Program    string
	Year       *int
	MinRate    *float64
	MaxRate    *float64
	Search     string
	Ordering   string
}

type Earnings struct {
	Sessions   int64   `json:"sessions"`
	HourlyRate float64 `json:"hourly_rate"`
	Amount     float64 `json:"amount"`
}

type MentorService struct {
	db       *gorm.DB
	identity *IdentityService
	log      *zap.Logger
}

func NewMentorService(db *gorm.DB, identity *IdentityService, log *zap.Logger) *MentorService {
	return &MentorService{
		db:       db,
		identity: identity,
		log:      log.With(zap.String(logger.FieldService, "mentor")),
	}
}

func validateAvailability(windows []models.AvailabilityWindow) error {
	for i, w := range windows {
		if w.Start.IsZero() || w.End.IsZero() {
			return fmt.Errorf("%w: availability[%d] requires start and end", ErrInvalidInput, i)
		}
	}
	return nil
}

func (f ApplicationFields) validate() error {
	if f.HourlyRate != nil && *f.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly_rate must not be negative", ErrInvalidInput)
	}
	if f.Year != nil && *f.Year < 0 {
		return fmt.Errorf("%w: year must not be negative", ErrInvalidInput)
	}
	if f.Availability != nil {
		return validateAvailability(f.Availability)
	}
	return nil
}

func (f ApplicationFields) apply(app *models.MentorApplication) {
	if f.University != nil {
		app.University = strings.TrimSpace(*f.University)
	}
	if f.Program != nil {
		app.Program = strings.TrimSpace(*f.Program)
	}
	if f.Year != nil {
		year := *f.Year
		app.Year = &year
	}
	if f.Achievements != nil {
		app.Achievements = *f.Achievements
	}
	if f.Languages != nil {
		app.Languages = strings.TrimSpace(*f.Languages)
	}
	if f.Availability != nil {
		app.Availability = datatypes.NewJSONType(f.Availability)
	}
	if f.HourlyRate != nil {
		app.HourlyRate = *f.HourlyRate
	}
	if f.VerificationDocumentURL != nil {
		app.VerificationDocumentURL = strings.TrimSpace(*f.VerificationDocumentURL)
	}
}

// Apply submits the actor's mentor application. A user holds at most one application.
func (s *MentorService) Apply(ctx context.Context, actor policy.Actor, fields ApplicationFields) (*models.MentorApplication, error) {
	if err := policy.Authorize(actor, policy.ApplicationCreate, policy.ApplicationTarget{OwnerID: actor.ID}); err != nil {
		return nil, err
	}
	// only a student can become a mentor through approval
	if actor.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: %s cannot apply as mentor", ErrInvalidState, actor.Role)
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.MentorApplication{}).Where("user_id = ?", actor.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: mentor application already exists", ErrConflict)
	}

	app := models.MentorApplication{
		UserID:       actor.ID,
		Status:       models.ApplicationPending,
		Availability: datatypes.NewJSONType([]models.AvailabilityWindow{}),
	}
	fields.apply(&app)

	if err := db.Omit(clause.Associations).Create(&app).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: mentor application already exists", ErrConflict)
		}
		return nil, fmt.Errorf("create mentor application: %w", err)
	}

	s.log.Info("mentor application submitted",
		zap.String(logger.FieldApplicationID, app.ID.String()),
		zap.String(logger.FieldUserID, actor.ID.String()),
	)
	return s.load(ctx, app.ID)
}

func (s *MentorService) load(ctx context.Context, id uuid.UUID) (*models.MentorApplication, error) {
	var app models.MentorApplication
	if err := s.db.WithContext(ctx).Preload("User").First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr("mentor application", err)
	}
	return &app, nil
}

func (s *MentorService) ListPending(ctx context.Context, actor policy.Actor) ([]models.MentorApplication, error) {
	if err := policy.Authorize(actor, policy.ApplicationListPending, policy.ApplicationTarget{}); err != nil {
		return nil, err
	}
	apps := []models.MentorApplication{}
	err := s.db.WithContext(ctx).Preload("User").
		Where("status = ?", models.ApplicationPending).
		Order("created_at asc").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list pending applications: %w", err)
	}
	return apps, nil
}

// Approve marks a pending application approved and promotes its owner to mentor in one
// transaction.
func (s *MentorService) Approve(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.MentorApplication, error) {
	if err := policy.Authorize(actor, policy.ApplicationApprove, policy.ApplicationTarget{}); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.MentorApplication
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return lookupErr("mentor application", err)
		}

		res := tx.Model(&models.MentorApplication{}).
			Where("id = ? AND status = ?", id, models.ApplicationPending).
			Update("status", models.ApplicationApproved)
		if res.Error != nil {
			return fmt.Errorf("approve application: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: application is %s", ErrInvalidState, app.Status)
		}

		return s.identity.Promote(tx, actor, app.UserID, models.RoleMentor)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("mentor application approved", zap.String(logger.FieldApplicationID, id.String()))
	return s.load(ctx, id)
}

func (s *MentorService) Reject(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.MentorApplication, error) {
	if err := policy.Authorize(actor, policy.ApplicationReject, policy.ApplicationTarget{}); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var app models.MentorApplication
	if err := db.First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr("mentor application", err)
	}

	res := db.Model(&models.MentorApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationPending).
		Update("status", models.ApplicationRejected)
	if res.Error != nil {
		return nil, fmt.Errorf("reject application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: application is %s", ErrInvalidState, app.Status)
	}

	s.log.Info("mentor application rejected", zap.String(logger.FieldApplicationID, id.String()))
	return s.load(ctx, id)
}

// Update edits descriptive fields. Status is only changed through Approve and Reject.
func (s *MentorService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, fields ApplicationFields) (*models.MentorApplication, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	target := policy.ApplicationOf(app)
	if !policy.Visible(actor, target) {
		return nil, notFound("mentor application")
	}
	if err := policy.Authorize(actor, policy.ApplicationUpdate, target); err != nil {
		return nil, err
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}

	fields.apply(app)
	err = s.db.WithContext(ctx).Model(app).
		Select("University", "Program", "Year", "Achievements", "Languages", "Availability", "HourlyRate", "VerificationDocumentURL", "UpdatedAt").
		Updates(app).Error
	if err != nil {
		return nil, fmt.Errorf("update mentor application: %w", err)
	}
	return s.load(ctx, id)
}

func (s *MentorService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.MentorApplication, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Visible(actor, policy.ApplicationOf(app)) {
		return nil, notFound("mentor application")
	}
	return app, nil
}

// List returns applications matching filter. Callers other than admins only see approved
// mentors.
func (s *MentorService) List(ctx context.Context, actor policy.Actor, filter MentorFilter) ([]models.MentorApplication, error) {
	q := s.db.WithContext(ctx).Model(&models.MentorApplication{}).
		Preload("User").
		Joins("JOIN users ON users.id = mentor_applications.user_id")

	if !actor.IsAdmin() {
		q = q.Where("mentor_applications.status = ?", models.ApplicationApproved)
	}
	if lang := strings.TrimSpace(filter.Language); lang != "" {
		q = q.Where("LOWER(mentor_applications.languages) LIKE ?", "%"+strings.ToLower(lang)+"%")
	}
	if filter.University != "" {
		q = q.Where("mentor_applications.university = ?", filter.University)
	}
	if filter.Program != "" {
		q = q.Where("mentor_applications.program = ?", filter.Program)
	}
	if filter.Year != nil {
		q = q.Where("mentor_applications.year = ?", *filter.Year)
	}
	if filter.MinRate != nil {
		q = q.Where("mentor_applications.hourly_rate >= ?", *filter.MinRate)
	}
	if filter.MaxRate != nil {
		q = q.Where("mentor_applications.hourly_rate <= ?", *filter.MaxRate)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(mentor_applications.languages) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?",
			like, like, like,
		)
	}

	switch filter.Ordering {
	case "hourly_rate":
		q = q.Order("mentor_applications.hourly_rate asc")
	case "-hourly_rate":
		q = q.Order("mentor_applications.hourly_rate desc")
	case "":
		q = q.Order("mentor_applications.created_at desc")
	default:
		return nil, fmt.Errorf("%w: unsupported ordering %q", ErrInvalidInput, filter.Ordering)
	}

	apps := []models.MentorApplication{}
	if err := q.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	return apps, nil
}

// Earnings totals the actor's accepted and completed sessions at their hourly rate.
func (s *MentorService) Earnings(ctx context.Context, actor policy.Actor) (*Earnings, error) {
	if err := policy.Authorize(actor, policy.EarningsView, policy.EarningsTarget{}); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var app models.MentorApplication
	if err := db.Where("user_id = ?", actor.ID).First(&app).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load mentor application: %w", err)
		}
	}

	var sessions int64
	err := db.Model(&models.Booking{}).
		Where("mentor_id = ? AND status IN ?", actor.ID, []models.BookingStatus{models.BookingAccepted, models.BookingCompleted}).
		Count(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	return &Earnings{
		Sessions:   sessions,
		HourlyRate: app.HourlyRate,
		Amount:     float64(sessions) * app.HourlyRate,
	}, nil
}

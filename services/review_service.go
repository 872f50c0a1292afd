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
	"gorm.io/gorm"
)

type NewReview struct {
	MentorID uuid.UUID
	Rating   int
	Comment  string
}

type ReviewService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReviewService(db *gorm.DB, log *zap.Logger) *ReviewService {
	return &ReviewService{db: db, log: log.With(zap.String(logger.FieldService, "review"))}
}

// Create records the actor's review of a mentor. No completed booking is required.
func (s *ReviewService) Create(ctx context.Context, actor policy.Actor, in NewReview) (*models.Review, error) {
	if err := policy.Authorize(actor, policy.ReviewCreate, policy.ReviewTarget{}); err != nil {
		return nil, err
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, models.MinRating, models.MaxRating)
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

	review := models.Review{
		StudentID: actor.ID,
		MentorID:  in.MentorID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("review created", zap.String(logger.FieldUserID, actor.ID.String()), zap.Int("rating", review.Rating))
	return &review, nil
}

// List returns reviews newest first, optionally for a single mentor.
func (s *ReviewService) List(ctx context.Context, mentorID *uuid.UUID) ([]models.Review, error) {
	q := s.db.WithContext(ctx).Model(&models.Review{})
	if mentorID != nil {
		q = q.Where("mentor_id = ?", *mentorID)
	}
	reviews := []models.Review{}
	if err := q.Order("created_at desc").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, lookupErr("review", err)
	}
	return &review, nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestApply(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	_, student := s.user(t, "s@example.com", models.RoleStudent)

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	app, err := s.mentors.Apply(ctx, student, ApplicationFields{
		University:   strPtr("Makerere"),
		Program:      strPtr("Computer Science"),
		Year:         intPtr(3),
		Languages:    strPtr("English, Swahili"),
		HourlyRate:   floatPtr(20),
		Availability: []models.AvailabilityWindow{{Start: start, End: start.Add(time.Hour)}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, student.ID, app.UserID)
	assert.Equal(t, "s@example.com", app.User.Email)
	require.Len(t, app.AvailabilityWindows(), 1)
	assert.True(t, start.Equal(app.AvailabilityWindows()[0].Start))

	_, err = s.mentors.Apply(ctx, student, ApplicationFields{University: strPtr("Other")})
	assert.ErrorIs(t, err, ErrConflict)

	first, err := s.mentors.Get(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Makerere", first.University)

	_, other := s.user(t, "o@example.com", models.RoleStudent)
	_, err = s.mentors.Apply(ctx, other, ApplicationFields{
		Availability: []models.AvailabilityWindow{{Start: start}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.mentors.Apply(ctx, other, ApplicationFields{HourlyRate: floatPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApprove(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	owner, ownerActor := s.user(t, "s@example.com", models.RoleStudent)
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)

	app, err := s.mentors.Apply(ctx, ownerActor, ApplicationFields{HourlyRate: floatPtr(15)})
	require.NoError(t, err)

	_, err = s.mentors.ListPending(ctx, ownerActor)
	assert.ErrorIs(t, err, ErrForbidden)
	pending, err := s.mentors.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = s.mentors.Approve(ctx, ownerActor, app.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.RoleStudent, s.reloadUser(t, owner.ID).Role)

	approved, err := s.mentors.Approve(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, approved.Status)
	assert.Equal(t, models.RoleMentor, s.reloadUser(t, owner.ID).Role)

	_, err = s.mentors.Approve(ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.mentors.Reject(ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.mentors.Approve(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err = s.mentors.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveRollsBackWhenPromotionFails(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)

	// an application whose owner no longer exists cannot be promoted
	orphan := testutil.CreateApplication(t, s.db, uuid.New(), models.ApplicationPending, 10)

	_, err := s.mentors.Approve(ctx, admin, orphan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var reloaded models.MentorApplication
	require.NoError(t, s.db.First(&reloaded, "id = ?", orphan.ID).Error)
	assert.Equal(t, models.ApplicationPending, reloaded.Status)
}

func TestApplyRequiresStudent(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	for _, role := range []models.Role{models.RoleMentor, models.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			_, actor := s.user(t, string(role)+"@example.com", role)
			_, err := s.mentors.Apply(ctx, actor, ApplicationFields{University: strPtr("Makerere")})
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.MentorApplication{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApproveAdminOwnedApplication(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	owner, _ := s.user(t, "owner@example.com", models.RoleAdmin)
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)

	// stored before the role changed, so it bypasses Apply
	app := testutil.CreateApplication(t, s.db, owner.ID, models.ApplicationPending, 10)

	_, err := s.mentors.Approve(ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	var reloaded models.MentorApplication
	require.NoError(t, s.db.First(&reloaded, "id = ?", app.ID).Error)
	assert.Equal(t, models.ApplicationPending, reloaded.Status)
	assert.Equal(t, models.RoleAdmin, s.reloadUser(t, owner.ID).Role)
}

func TestReject(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	owner, ownerActor := s.user(t, "s@example.com", models.RoleStudent)
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)

	app, err := s.mentors.Apply(ctx, ownerActor, ApplicationFields{})
	require.NoError(t, err)

	_, err = s.mentors.Reject(ctx, ownerActor, app.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	rejected, err := s.mentors.Reject(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, rejected.Status)
	assert.Equal(t, models.RoleStudent, s.reloadUser(t, owner.ID).Role)

	_, err = s.mentors.Approve(ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateApplication(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	_, ownerActor := s.user(t, "s@example.com", models.RoleStudent)
	_, stranger := s.user(t, "x@example.com", models.RoleStudent)
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)

	app, err := s.mentors.Apply(ctx, ownerActor, ApplicationFields{University: strPtr("Old")})
	require.NoError(t, err)

	updated, err := s.mentors.Update(ctx, ownerActor, app.ID, ApplicationFields{University: strPtr("New"), HourlyRate: floatPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.University)
	assert.Equal(t, 30.0, updated.HourlyRate)
	assert.Equal(t, models.ApplicationPending, updated.Status)

	// pending applications are invisible to strangers
	_, err = s.mentors.Update(ctx, stranger, app.ID, ApplicationFields{University: strPtr("Hijack")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.mentors.Get(ctx, stranger, app.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.mentors.Update(ctx, ownerActor, app.ID, ApplicationFields{
		Availability: []models.AvailabilityWindow{{End: time.Now()}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.mentors.Approve(ctx, admin, app.ID)
	require.NoError(t, err)

	// approved applications are visible but only the owner or an admin may edit
	_, err = s.mentors.Update(ctx, stranger, app.ID, ApplicationFields{University: strPtr("Hijack")})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err = s.mentors.Update(ctx, admin, app.ID, ApplicationFields{Program: strPtr("Maths")})
	require.NoError(t, err)
	assert.Equal(t, "Maths", updated.Program)
	assert.Equal(t, "New", updated.University)
	assert.Equal(t, models.ApplicationApproved, updated.Status)
}

func TestListMentors(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	_, admin := s.user(t, "admin@example.com", models.RoleAdmin)
	_, visitor := s.user(t, "v@example.com", models.RoleStudent)

	mk := func(email, first, languages, university string, rate float64, approve bool) *models.MentorApplication {
		u, actor := s.user(t, email, models.RoleStudent)
		require.NoError(t, s.db.Model(u).Update("first_name", first).Error)
		app, err := s.mentors.Apply(ctx, actor, ApplicationFields{
			Languages:  strPtr(languages),
			University: strPtr(university),
			Year:       intPtr(2),
			HourlyRate: floatPtr(rate),
		})
		require.NoError(t, err)
		if approve {
			_, err = s.mentors.Approve(ctx, admin, app.ID)
			require.NoError(t, err)
		}
		return app
	}
	cheap := mk("a@example.com", "Amina", "English, Swahili", "Makerere", 10, true)
	pricey := mk("b@example.com", "Brian", "French", "Nairobi", 40, true)
	hidden := mk("c@example.com", "Chloe", "English", "Makerere", 25, false)

	ids := func(apps []models.MentorApplication) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(apps))
		for _, a := range apps {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter MentorFilter
		want   []uuid.UUID
	}{
		{"language is case insensitive", MentorFilter{Language: "swahili"}, []uuid.UUID{cheap.ID}},
		{"university", MentorFilter{University: "Nairobi"}, []uuid.UUID{pricey.ID}},
		{"year", MentorFilter{Year: intPtr(2), Ordering: "hourly_rate"}, []uuid.UUID{cheap.ID, pricey.ID}},
		{"rate bounds", MentorFilter{MinRate: floatPtr(20), MaxRate: floatPtr(50)}, []uuid.UUID{pricey.ID}},
		{"search by name", MentorFilter{Search: "brI"}, []uuid.UUID{pricey.ID}},
		{"search by language", MentorFilter{Search: "english"}, []uuid.UUID{cheap.ID}},
		{"descending rate", MentorFilter{Ordering: "-hourly_rate"}, []uuid.UUID{pricey.ID, cheap.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps, err := s.mentors.List(ctx, visitor, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(apps))
		})
	}

	all, err := s.mentors.List(ctx, admin, MentorFilter{Ordering: "hourly_rate"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cheap.ID, hidden.ID, pricey.ID}, ids(all))

	_, err = s.mentors.List(ctx, visitor, MentorFilter{Ordering: "rating"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEarnings(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	mentor, mentorActor := s.user(t, "m@example.com", models.RoleMentor)
	student, studentActor := s.user(t, "s@example.com", models.RoleStudent)
	testutil.CreateApplication(t, s.db, mentor.ID, models.ApplicationApproved, 12.5)

	for _, status := range []models.BookingStatus{
		models.BookingPending, models.BookingAccepted, models.BookingCompleted, models.BookingRejected, models.BookingCompleted,
	} {
		require.NoError(t, s.db.Create(&models.Booking{
			StudentID: student.ID,
			MentorID:  mentor.ID,
			SlotTime:  time.Now(),
			Status:    status,
		}).Error)
	}

	earnings, err := s.mentors.Earnings(ctx, mentorActor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), earnings.Sessions)
	assert.Equal(t, 12.5, earnings.HourlyRate)
	assert.Equal(t, 37.5, earnings.Amount)

	_, err = s.mentors.Earnings(ctx, studentActor)
	assert.ErrorIs(t, err, ErrForbidden)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/oauth"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	u, err := s.identity.Register(ctx, NewUser{
		Email:     "  Ada@Example.com ",
		Handle:    "ada",
		Password:  "secret123",
		FirstName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.NotEqual(t, "secret123", u.Password)
	require.NotNil(t, u.Handle)
	assert.Equal(t, "ada", *u.Handle)

	tests := []struct {
		name    string
		in      NewUser
		wantErr error
	}{
		{"duplicate email", NewUser{Email: "ADA@example.com", Password: "x"}, ErrConflict},
		{"duplicate handle", NewUser{Email: "other@example.com", Handle: "ada", Password: "x"}, ErrConflict},
		{"missing password", NewUser{Email: "new@example.com"}, ErrInvalidInput},
		{"missing email", NewUser{Password: "x"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.identity.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// handle is optional and several users may omit it
	_, err = s.identity.Register(ctx, NewUser{Email: "a@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = s.identity.Register(ctx, NewUser{Email: "b@example.com", Password: "x"})
	require.NoError(t, err)
}

func TestAuthenticateAndRefresh(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	u, err := s.identity.Register(ctx, NewUser{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	tokens, err := s.identity.Authenticate(ctx, "ADA@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)

	id, err := s.tokens.Parse(tokens.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = s.tokens.Parse(tokens.Access, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.identity.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.identity.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	refreshed, err := s.identity.Refresh(ctx, tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	_, err = s.identity.Refresh(ctx, tokens.Access)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.identity.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = s.identity.Authenticate(ctx, "ada@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetListUpdateMe(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	student, studentActor := s.user(t, "s@example.com", models.RoleStudent)
	other, _ := s.user(t, "o@example.com", models.RoleStudent)
	_, adminActor := s.user(t, "admin@example.com", models.RoleAdmin)

	got, err := s.identity.Get(ctx, studentActor, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.Email, got.Email)

	_, err = s.identity.Get(ctx, studentActor, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.identity.Get(ctx, adminActor, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.identity.List(ctx, studentActor)
	assert.ErrorIs(t, err, ErrForbidden)
	users, err := s.identity.List(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	updated, err := s.identity.UpdateMe(ctx, studentActor, UserPatch{FirstName: strPtr("Sam"), Handle: strPtr("sam")})
	require.NoError(t, err)
	assert.Equal(t, "Sam", updated.FirstName)
	assert.Equal(t, "sam", *updated.Handle)

	// keeping one's own handle is not a conflict
	_, err = s.identity.UpdateMe(ctx, studentActor, UserPatch{Handle: strPtr("sam")})
	require.NoError(t, err)

	_, err = s.identity.UpdateMe(ctx, actorOf(other), UserPatch{Handle: strPtr("sam")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPromote(t *testing.T) {
	s := setup(t)

	student, studentActor := s.user(t, "s@example.com", models.RoleStudent)
	admin, adminActor := s.user(t, "admin@example.com", models.RoleAdmin)

	err := s.identity.Promote(s.db, studentActor, student.ID, models.RoleMentor)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.RoleStudent, s.reloadUser(t, student.ID).Role)

	require.NoError(t, s.identity.Promote(s.db, adminActor, student.ID, models.RoleMentor))
	assert.Equal(t, models.RoleMentor, s.reloadUser(t, student.ID).Role)

	// an admin is never demoted by promotion
	err = s.identity.Promote(s.db, adminActor, admin.ID, models.RoleMentor)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.RoleAdmin, s.reloadUser(t, admin.ID).Role)

	err = s.identity.Promote(s.db, adminActor, student.ID, models.RoleMentor)
	assert.ErrorIs(t, err, ErrInvalidState)

	err = s.identity.Promote(s.db, adminActor, uuid.New(), models.RoleMentor)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.identity.Promote(s.db, adminActor, student.ID, models.RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOrCreateFromProvider(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	t.Run("creates a student", func(t *testing.T) {
		u, err := s.identity.GetOrCreateFromProvider(ctx, &oauth.UserInfo{
			ProviderID: "g-1",
			Email:      "New@Example.com",
			Name:       "Grace Brewster Hopper",
			Picture:    "https://img/1.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", u.Email)
		assert.Equal(t, models.RoleStudent, u.Role)
		assert.Equal(t, "Grace", u.FirstName)
		assert.Equal(t, "Brewster Hopper", u.LastName)
		require.NotNil(t, u.GoogleID)
		assert.Equal(t, "g-1", *u.GoogleID)
	})

	t.Run("finds by provider id first", func(t *testing.T) {
		u, err := s.identity.GetOrCreateFromProvider(ctx, &oauth.UserInfo{
			ProviderID: "g-1",
			Email:      "changed@example.com",
			Picture:    "https://img/2.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", u.Email)
		require.NotNil(t, u.ProfilePictureURL)
		assert.Equal(t, "https://img/2.png", *u.ProfilePictureURL)
	})

	t.Run("links by email", func(t *testing.T) {
		existing, _ := s.user(t, "linked@example.com", models.RoleMentor)
		u, err := s.identity.GetOrCreateFromProvider(ctx, &oauth.UserInfo{ProviderID: "g-2", Email: "linked@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)
		assert.Equal(t, models.RoleMentor, u.Role)

		reloaded := s.reloadUser(t, existing.ID)
		require.NotNil(t, reloaded.GoogleID)
		assert.Equal(t, "g-2", *reloaded.GoogleID)
	})

	t.Run("missing email creates nothing", func(t *testing.T) {
		var before int64
		s.db.Model(&models.User{}).Count(&before)

		_, err := s.identity.GetOrCreateFromProvider(ctx, &oauth.UserInfo{ProviderID: "g-3", Name: "No Mail"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		var after int64
		s.db.Model(&models.User{}).Count(&after)
		assert.Equal(t, before, after)
	})
}

func TestSignInWithProvider(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	s.provider.info = &oauth.UserInfo{ProviderID: "g-9", Name: "Anon"}
	_, _, err := s.identity.SignInWithProvider(ctx, "provider-token")
	assert.ErrorIs(t, err, ErrInvalidInput)
	var count int64
	s.db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)

	s.provider.info = &oauth.UserInfo{ProviderID: "g-9", Email: "anon@example.com"}
	u, tokens, err := s.identity.SignInWithCode(ctx, "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "anon@example.com", u.Email)
	assert.NotEmpty(t, tokens.Access)

	s.provider.err = errors.New("token revoked")
	_, _, err = s.identity.SignInWithProvider(ctx, "provider-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	s.provider.exchange = errors.New("bad code")
	_, _, err = s.identity.SignInWithCode(ctx, "abc", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSeedAdmin(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.identity.SeedAdmin(ctx, "Root@Example.com", "pw", "Platform", "Admin"))
	require.NoError(t, s.identity.SeedAdmin(ctx, "root@example.com", "pw", "Platform", "Admin"))

	var admins []models.User
	require.NoError(t, s.db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].Email)

	_, err := s.identity.Authenticate(ctx, "root@example.com", "pw")
	require.NoError(t, err)

	actor, err := s.identity.Actor(ctx, admins[0].ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{ID: admins[0].ID, Role: models.RoleAdmin}, actor)

	_, err = s.identity.Actor(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProviderState(t *testing.T) {
	s := setup(t)

	signed, err := s.identity.SignState("abc123")
	require.NoError(t, err)
	require.NoError(t, s.identity.VerifyState(signed, "abc123"))

	assert.ErrorIs(t, s.identity.VerifyState(signed, "other"), ErrUnauthorized)
	assert.ErrorIs(t, s.identity.VerifyState("", "abc123"), ErrUnauthorized)
	assert.ErrorIs(t, s.identity.VerifyState(signed, ""), ErrUnauthorized)

	// session tokens are not state values
	u, _ := s.user(t, "s@example.com", models.RoleStudent)
	tokens, err := s.tokens.Issue(u)
	require.NoError(t, err)
	assert.ErrorIs(t, s.identity.VerifyState(tokens.Access, ""), ErrUnauthorized)
	assert.ErrorIs(t, s.identity.VerifyState(tokens.Access, "abc123"), ErrUnauthorized)

	s.tokens.now = func() time.Time { return time.Now().Add(-2 * StateTTL) }
	expired, err := s.identity.SignState("abc123")
	require.NoError(t, err)
	assert.ErrorIs(t, s.identity.VerifyState(expired, "abc123"), ErrUnauthorized)
}

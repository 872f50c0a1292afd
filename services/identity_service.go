package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/oauth"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/anjiri1684/unimentor/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type NewUser struct {
	Email     string
	Handle    string
	Password  string
	FirstName string
	LastName  string
}

// UserPatch holds the self-editable profile fields. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Handle    *string
}

type IdentityService struct {
	db         *gorm.DB
	tokens     *TokenIssuer
	provider   oauth.Provider
	log        *zap.Logger
	bcryptCost int
}

func NewIdentityService(db *gorm.DB, tokens *TokenIssuer, provider oauth.Provider, log *zap.Logger, bcryptCost int) *IdentityService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &IdentityService{
		db:         db,
		tokens:     tokens,
		provider:   provider,
		log:        log.With(zap.String(logger.FieldService, "identity")),
		bcryptCost: bcryptCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a student account. Self-registration never assigns any other role.
func (s *IdentityService) Register(ctx context.Context, in NewUser) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	var handle *string
	if h := strings.TrimSpace(in.Handle); h != "" {
		handle = &h
	}

	if err := s.checkAvailable(ctx, email, handle, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:     email,
		Handle:    handle,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
		Role:      models.RoleStudent,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: email or handle already taken", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.String(logger.FieldUserID, user.ID.String()))
	return &user, nil
}

// checkAvailable reports ErrConflict when email or handle belongs to a user other than except.
func (s *IdentityService) checkAvailable(ctx context.Context, email string, handle *string, except uuid.UUID) error {
	db := s.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", except)

	if email != "" {
		var count int64
		if err := db.Session(&gorm.Session{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: email already taken", ErrConflict)
		}
	}
	if handle != nil {
		var count int64
		if err := db.Session(&gorm.Session{}).Where("handle = ?", *handle).Count(&count).Error; err != nil {
			return fmt.Errorf("check handle: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: handle already taken", ErrConflict)
		}
	}
	return nil
}

// Authenticate exchanges an email and password for a token pair.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*Tokens, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	return s.tokens.Issue(&user)
}

func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	id, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	return s.tokens.Issue(&user)
}

func (s *IdentityService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.User, error) {
	if err := policy.Authorize(actor, policy.UserView, policy.UserTarget{ID: id}); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, lookupErr("user", err)
	}
	return &user, nil
}

func (s *IdentityService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if err := policy.Authorize(actor, policy.UserList, policy.UserTarget{}); err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *IdentityService) UpdateMe(ctx context.Context, actor policy.Actor, patch UserPatch) (*models.User, error) {
	if err := policy.Authorize(actor, policy.UserUpdate, policy.UserTarget{ID: actor.ID}); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if patch.Handle != nil {
		h := strings.TrimSpace(*patch.Handle)
		if h == "" {
			updates["handle"] = nil
		} else {
			if err := s.checkAvailable(ctx, "", &h, actor.ID); err != nil {
				return nil, err
			}
			updates["handle"] = h
		}
	}

	db := s.db.WithContext(ctx)
	if len(updates) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", actor.ID).Updates(updates)
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return nil, fmt.Errorf("%w: handle already taken", ErrConflict)
			}
			return nil, fmt.Errorf("update user: %w", res.Error)
		}
	}

	var user models.User
	if err := db.First(&user, "id = ?", actor.ID).Error; err != nil {
		return nil, lookupErr("user", err)
	}
	return &user, nil
}

// Promote raises a student to role. It must run on the caller's transaction handle so the
// promotion commits together with whatever triggered it. Users already holding mentor or
// admin are never changed and yield ErrInvalidState.
func (s *IdentityService) Promote(tx *gorm.DB, actor policy.Actor, userID uuid.UUID, role models.Role) error {
	if err := policy.Authorize(actor, policy.UserPromote, policy.UserTarget{ID: userID}); err != nil {
		return err
	}
	if !role.Valid() || role == models.RoleStudent {
		return fmt.Errorf("%w: cannot promote to %q", ErrInvalidInput, role)
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleStudent).
		Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("promote user: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		s.log.Info("user promoted",
			zap.String(logger.FieldUserID, userID.String()),
			zap.String("role", string(role)),
		)
		return nil
	}

	var user models.User
	if err := tx.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		return lookupErr("user", err)
	}
	return fmt.Errorf("%w: user is already %s", ErrInvalidState, user.Role)
}

// GetOrCreateFromProvider resolves a provider identity to a local user: by provider subject
// id first, then by email (linking the id), else a new student. An identity without an
// email is rejected before anything is written.
func (s *IdentityService) GetOrCreateFromProvider(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	if info == nil || normalizeEmail(info.Email) == "" {
		return nil, fmt.Errorf("%w: provider did not return an email", ErrInvalidInput)
	}
	email := normalizeEmail(info.Email)

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found := false
		if info.ProviderID != "" {
			err := tx.Where("google_id = ?", info.ProviderID).First(&user).Error
			if err == nil {
				found = true
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if !found {
			err := tx.Where("email = ?", email).First(&user).Error
			switch {
			case err == nil:
				if user.GoogleID == nil && info.ProviderID != "" {
					providerID := info.ProviderID
					if err := tx.Model(&user).Update("google_id", providerID).Error; err != nil {
						return err
					}
					user.GoogleID = &providerID
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				first, last := utils.SplitName(info.Name)
				user = models.User{
					Email:     email,
					FirstName: first,
					LastName:  last,
					Role:      models.RoleStudent,
					IsActive:  true,
				}
				if info.ProviderID != "" {
					providerID := info.ProviderID
					user.GoogleID = &providerID
				}
				if info.Picture != "" {
					picture := info.Picture
					user.ProfilePictureURL = &picture
				}
				if err := tx.Create(&user).Error; err != nil {
					return err
				}
				s.log.Info("user created from provider", zap.String(logger.FieldUserID, user.ID.String()))
				return nil
			default:
				return err
			}
		}

		if info.Picture != "" && (user.ProfilePictureURL == nil || *user.ProfilePictureURL != info.Picture) {
			picture := info.Picture
			if err := tx.Model(&user).Update("profile_picture_url", picture).Error; err != nil {
				return err
			}
			user.ProfilePictureURL = &picture
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: account already linked", ErrConflict)
		}
		return nil, fmt.Errorf("resolve provider user: %w", err)
	}
	return &user, nil
}

// SignInWithProvider signs in with an access token already issued by the provider.
func (s *IdentityService) SignInWithProvider(ctx context.Context, accessToken string) (*models.User, *Tokens, error) {
	if accessToken == "" {
		return nil, nil, fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}
	info, err := s.provider.UserInfo(ctx, accessToken)
	if err != nil {
		s.log.Warn("provider userinfo failed", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: invalid provider token", ErrUnauthorized)
	}
	return s.signIn(ctx, info)
}

// SignInWithCode completes the authorization-code flow.
func (s *IdentityService) SignInWithCode(ctx context.Context, code, redirectURI string) (*models.User, *Tokens, error) {
	if code == "" {
		return nil, nil, fmt.Errorf("%w: authorization code is required", ErrInvalidInput)
	}
	token, err := s.provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			return nil, nil, err
		}
		s.log.Warn("provider code exchange failed", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: invalid authorization code", ErrUnauthorized)
	}
	return s.SignInWithProvider(ctx, token.AccessToken)
}

func (s *IdentityService) signIn(ctx context.Context, info *oauth.UserInfo) (*models.User, *Tokens, error) {
	user, err := s.GetOrCreateFromProvider(ctx, info)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *IdentityService) AuthURL(state, redirectURI string) (string, error) {
	return s.provider.AuthURL(state, redirectURI)
}

// SignState returns the value the browser keeps while it visits the provider.
func (s *IdentityService) SignState(state string) (string, error) {
	return s.tokens.SignState(state)
}

// VerifyState matches the state returned by the provider against the signed value issued
// with the consent URL.
func (s *IdentityService) VerifyState(signed, state string) error {
	return s.tokens.VerifyState(signed, state)
}

// SeedAdmin creates the platform admin on first boot. An existing account with the same
// email is left as is.
func (s *IdentityService) SeedAdmin(ctx context.Context, email, password, firstName, lastName string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.log.Warn("admin credentials not configured, skipping admin seed")
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		s.log.Info("admin user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  string(hash),
		Role:      models.RoleAdmin,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	s.log.Info("admin user created", zap.String(logger.FieldUserID, admin.ID.String()))
	return nil
}

// Actor loads the stored identity behind a verified token.
func (s *IdentityService) Actor(ctx context.Context, id uuid.UUID) (policy.Actor, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "role", "is_active").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return policy.Actor{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return policy.Actor{}, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	return policy.Actor{ID: user.ID, Role: user.Role}, nil
}

package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/unimentor/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeState   = "oauth_state"
)

// StateTTL bounds how long a sign-in started with the provider may take to come back.
const StateTTL = 10 * time.Minute

type Claims struct {
	UserID    string      `json:"user_id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

type stateClaims struct {
	State     string `json:"state"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) Issue(user *models.User) (*Tokens, error) {
	access, err := t.sign(user, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(user, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Tokens{Access: access, Refresh: refresh}, nil
}

func (t *TokenIssuer) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:    user.ID.String(),
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies a token and checks it is of the expected type.
func (t *TokenIssuer) Parse(raw, tokenType string) (uuid.UUID, error) {
	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, t.key); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.TokenType != tokenType {
		return uuid.Nil, fmt.Errorf("%w: expected %s token", ErrUnauthorized, tokenType)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed subject", ErrUnauthorized)
	}
	return id, nil
}

func (t *TokenIssuer) key(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return t.secret, nil
}

// SignState binds an OAuth state value to this server for StateTTL.
func (t *TokenIssuer) SignState(state string) (string, error) {
	now := t.now()
	claims := stateClaims{
		State:     state,
		TokenType: TokenTypeState,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// VerifyState checks that signed was issued by SignState for state and has not expired.
func (t *TokenIssuer) VerifyState(signed, state string) error {
	if signed == "" || state == "" {
		return fmt.Errorf("%w: missing state", ErrUnauthorized)
	}
	var claims stateClaims
	if _, err := jwt.ParseWithClaims(signed, &claims, t.key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.TokenType != TokenTypeState || subtle.ConstantTimeCompare([]byte(claims.State), []byte(state)) != 1 {
		return fmt.Errorf("%w: state mismatch", ErrUnauthorized)
	}
	return nil
}

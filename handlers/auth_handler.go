package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/services"
	"github.com/anjiri1684/unimentor/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	stateCookie     = "oauth_state"
	stateCookiePath = "/api/v1/auth/google"
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Handle    string `json:"handle" validate:"omitempty,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type GoogleAuthRequest struct {
	AccessToken string `json:"access_token"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type SessionUser struct {
	ID                string      `json:"id"`
	Email             string      `json:"email"`
	Role              models.Role `json:"role"`
	ProfilePictureURL *string     `json:"profile_picture"`
}

type SessionResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         SessionUser `json:"user"`
}

func sessionResponse(user *models.User, tokens *services.Tokens) SessionResponse {
	return SessionResponse{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
		User: SessionUser{
			ID:                user.ID.String(),
			Email:             user.Email,
			Role:              user.Role,
			ProfilePictureURL: user.ProfilePictureURL,
		},
	}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	user, err := h.identity.Register(c.UserContext(), services.NewUser{
		Email:     req.Email,
		Handle:    req.Handle,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	tokens, err := h.identity.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(tokens)
}

func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	tokens, err := h.identity.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(tokens)
}

// GoogleAuthURL returns the consent-screen URL the frontend should redirect to.
func (h *Handler) GoogleAuthURL(c *fiber.Ctx) error {
	state, err := utils.GenerateState()
	if err != nil {
		return h.respondError(c, err)
	}
	redirectURI := c.Query("redirect_uri", h.opts.GoogleCallbackURL)

	authURL, err := h.identity.AuthURL(state, redirectURI)
	if err != nil {
		return h.respondError(c, err)
	}
	signed, err := h.identity.SignState(state)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    signed,
		Path:     stateCookiePath,
		MaxAge:   int(services.StateTTL.Seconds()),
		Secure:   strings.HasPrefix(h.opts.GoogleCallbackURL, "https://"),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"auth_url": authURL, "state": state})
}

// GoogleSignIn accepts either a provider access token or an authorization code. Identity
// details are always fetched from the provider, never taken from the request.
func (h *Handler) GoogleSignIn(c *fiber.Ctx) error {
	var req GoogleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var (
		user   *models.User
		tokens *services.Tokens
		err    error
	)
	switch {
	case req.AccessToken != "":
		user, tokens, err = h.identity.SignInWithProvider(c.UserContext(), req.AccessToken)
	case req.Code != "":
		user, tokens, err = h.identity.SignInWithCode(c.UserContext(), req.Code, req.RedirectURI)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Access token is required"})
	}
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(sessionResponse(user, tokens))
}

// GoogleCallback completes the code flow. Browser redirects (GET) must carry the state
// issued by GoogleAuthURL and are sent back to the frontend; API calls (POST) receive the
// session as JSON.
func (h *Handler) GoogleCallback(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var req GoogleAuthRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
		if req.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Authorization code is required"})
		}
		redirectURI := req.RedirectURI
		if redirectURI == "" {
			redirectURI = h.opts.GoogleCallbackURL
		}
		user, tokens, err := h.identity.SignInWithCode(c.UserContext(), req.Code, redirectURI)
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(sessionResponse(user, tokens))
	}

	if providerErr := c.Query("error"); providerErr != "" {
		return h.redirectFrontend(c, "/index.html", url.Values{"error": {providerErr}}, nil)
	}
	code := c.Query("code")
	if code == "" {
		return h.redirectFrontend(c, "/index.html", url.Values{"error": {"no_code"}}, nil)
	}

	signed := c.Cookies(stateCookie)
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Path:     stateCookiePath,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if err := h.identity.VerifyState(signed, c.Query("state")); err != nil {
		h.log.Warn("google callback rejected", zap.Error(err))
		return h.redirectFrontend(c, "/index.html", url.Values{"error": {"invalid_state"}}, nil)
	}

	_, tokens, err := h.identity.SignInWithCode(c.UserContext(), code, h.opts.GoogleCallbackURL)
	if err != nil {
		reason := "authentication_failed"
		if errors.Is(err, services.ErrInvalidInput) {
			reason = "user_info_failed"
		} else if errors.Is(err, services.ErrUnauthorized) {
			reason = "token_exchange_failed"
		}
		h.log.Warn("google callback failed", zap.Error(err))
		return h.redirectFrontend(c, "/index.html", url.Values{"error": {reason}}, nil)
	}

	fragment := url.Values{
		"access_token":  {tokens.Access},
		"refresh_token": {tokens.Refresh},
	}
	return h.redirectFrontend(c, "/congrats.html", url.Values{"success": {"true"}}, fragment)
}

func (h *Handler) redirectFrontend(c *fiber.Ctx, path string, query, fragment url.Values) error {
	target := h.opts.FrontendURL + path + "?" + query.Encode()
	if len(fragment) > 0 {
		target += "#" + fragment.Encode()
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Package oauth wraps the Google OAuth2 authorization-code flow used for social sign-in.
package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("google sign-in is not configured")

// UserInfo is the identity the provider vouches for.
type UserInfo struct {
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

// Provider resolves a provider access token or authorization code to a verified identity.
type Provider interface {
	AuthURL(state, redirectURI string) (string, error)
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

type Google struct {
	config *oauth2.Config
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

func (g *Google) configured() bool {
	return g.config.ClientID != "" && g.config.ClientSecret != ""
}

func (g *Google) AuthURL(state, redirectURI string) (string, error) {
	if !g.configured() {
		return "", ErrNotConfigured
	}
	cfg := g.withRedirect(redirectURI)
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	if !g.configured() {
		return nil, ErrNotConfigured
	}
	cfg := g.withRedirect(redirectURI)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func (g *Google) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
	))
	if err != nil {
		return nil, fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	return &UserInfo{
		ProviderID: info.Id,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture,
	}, nil
}

func (g *Google) withRedirect(redirectURI string) oauth2.Config {
	cfg := *g.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	return cfg
}

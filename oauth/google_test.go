package oauth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	g := NewGoogle("client-id", "client-secret", "http://localhost:8080/api/v1/auth/google/callback")

	raw, err := g.AuthURL("xyz", "")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "http://localhost:8080/api/v1/auth/google/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")

	raw, err = g.AuthURL("xyz", "http://frontend/cb")
	require.NoError(t, err)
	u, _ = url.Parse(raw)
	assert.Equal(t, "http://frontend/cb", u.Query().Get("redirect_uri"))
}

func TestNotConfigured(t *testing.T) {
	g := NewGoogle("", "", "")

	_, err := g.AuthURL("s", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = g.Exchange(context.Background(), "code", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

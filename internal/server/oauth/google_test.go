package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogle(t *testing.T, userinfo http.HandlerFunc) *Google {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", userinfo)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	orig := userInfoURL
	userInfoURL = srv.URL + "/userinfo"
	t.Cleanup(func() { userInfoURL = orig })

	g := NewGoogle("cid", "secret", "https://api.swengineer.dev/")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	return g
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := NewGoogle("cid", "secret", "https://api.swengineer.dev/")

	u, err := url.Parse(g.AuthCodeURL("st-1"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "https://api.swengineer.dev/google/redirect", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogle_Exchange(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub": "g-123", "email": "alice@example.com", "email_verified": true,
		})
	})

	id, err := g.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, Identity{ExternalID: "g-123", Email: "alice@example.com", EmailVerified: true}, id)
}

func TestGoogle_ExchangeUserinfoFailure(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := g.Exchange(context.Background(), "code-1")
	require.ErrorIs(t, err, ErrProvider)
}

func TestGoogle_ExchangeIncompleteProfile(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"sub": "g-1"})
	})

	_, err := g.Exchange(context.Background(), "code-1")
	require.ErrorIs(t, err, ErrProvider)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/":                     "/",
		"/notepad":              "/notepad",
		"/profile?tab=security": "/profile?tab=security",
		"//evil.example":        "/",
		`/\evil.example`:        "/",
		"https://evil.example":  "/",
		"notepad":               "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirect(in), in)
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

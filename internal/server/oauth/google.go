// Package oauth bridges an external identity provider (Google) to the
// account service: it builds the consent redirect and turns the callback's
// authorization code into a verified identity.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Identity is what the provider asserts about the signed-in user.
type Identity struct {
	ExternalID    string
	Email         string
	EmailVerified bool
}

// Provider is implemented by each supported identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

var ErrProvider = errors.New("identity provider error")

// userInfoURL is the OpenID Connect userinfo endpoint; swapped in tests.
var userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type Google struct {
	cfg *oauth2.Config
}

// NewGoogle configures the OAuth2 authorization-code flow. apiURI is the
// externally reachable base of this service; the callback is
// {apiURI}/google/redirect.
func NewGoogle(clientID, clientSecret, apiURI string) *Google {
	return &Google{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(apiURI, "/") + "/google/redirect",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoints.Google,
	}}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: exchange code: %w", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: userinfo: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: userinfo status %d", ErrProvider, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("%w: decode userinfo: %w", ErrProvider, err)
	}
	if info.Sub == "" || info.Email == "" {
		return Identity{}, fmt.Errorf("%w: userinfo lacks subject or email", ErrProvider)
	}

	return Identity{
		ExternalID:    info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
	}, nil
}

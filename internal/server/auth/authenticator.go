package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

// AccountFinder is the slice of the account store the authenticator needs.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type Authenticator struct {
	sessions *Sessions
	accounts AccountFinder
}

func NewAuthenticator(sessions *Sessions, accounts AccountFinder) *Authenticator {
	return &Authenticator{sessions: sessions, accounts: accounts}
}

// Authenticate resolves a session token to its account.
//
// Errors: common.ErrMissingToken, common.ErrInvalidToken,
// common.ErrTokenExpired, common.ErrInvalidPrincipal when the account no
// longer exists, or an error wrapping common.ErrorInternal.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}

	id, err := a.sessions.Verify(token)
	if err != nil {
		return nil, err
	}

	acc, err := a.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidPrincipal
		}
		return nil, common.Internal(err)
	}
	return acc, nil
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

type fakeFinder struct {
	accounts map[string]*models.Account
	err      error
}

func (f *fakeFinder) FindByID(_ context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func TestAuthenticate(t *testing.T) {
	sessions := NewSessions([]byte("secret"), time.Hour)
	alice := &models.Account{ID: "a-1", Email: "alice@example.com"}
	finder := &fakeFinder{accounts: map[string]*models.Account{alice.ID: alice}}
	authn := NewAuthenticator(sessions, finder)
	ctx := context.Background()

	good, _, err := sessions.Issue(alice.ID)
	require.NoError(t, err)
	orphan, _, err := sessions.Issue("deleted-id")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		got, err := authn.Authenticate(ctx, good)
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "")
		assert.ErrorIs(t, err, common.ErrMissingToken)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("unknown principal", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, orphan)
		assert.ErrorIs(t, err, common.ErrInvalidPrincipal)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := NewAuthenticator(sessions, &fakeFinder{err: errors.New("db down")})
		_, err := broken.Authenticate(ctx, good)
		assert.ErrorIs(t, err, common.ErrorInternal)
	})
}

func TestAccountContext(t *testing.T) {
	ctx := context.Background()
	_, ok := AccountFromContext(ctx)
	assert.False(t, ok)

	a := &models.Account{ID: "x"}
	got, ok := AccountFromContext(WithAccount(ctx, a))
	require.True(t, ok)
	assert.Same(t, a, got)
}

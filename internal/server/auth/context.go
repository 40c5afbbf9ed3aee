package auth

import (
	"context"

	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

type ctxKey struct{}

// WithAccount returns a copy of ctx carrying the authenticated account.
func WithAccount(ctx context.Context, a *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// AccountFromContext returns the account stored by WithAccount.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(ctxKey{}).(*models.Account)
	return a, ok && a != nil
}

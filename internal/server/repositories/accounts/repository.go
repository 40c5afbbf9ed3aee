// Package accounts is the credential store: persistence of models.Account
// with uniqueness of email and of the sparse token columns enforced by the
// backend itself.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

// Repository is implemented by the PostgreSQL and in-memory backends.
//
// Lookups return common.ErrorNotFound when nothing matches. Save and
// ConsumeResetToken report unique index collisions as
// common.DuplicateKeyError.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.Account, error)
	FindByResetToken(ctx context.Context, token string) (*models.Account, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Account, error)

	// Save inserts the account when ID is empty and updates it otherwise.
	// It assigns ID and CreatedAt on insert and always bumps UpdatedAt.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)

	DeleteByID(ctx context.Context, id string) error

	// ConsumeResetToken stores passwordHash and clears the reset token in a
	// single step, provided token is still outstanding and unexpired at now.
	// It returns common.ErrorNotFound when the token is unknown, expired or
	// was consumed concurrently.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error)
}

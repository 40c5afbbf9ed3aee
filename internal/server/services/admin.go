package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/swengineer/internal/server/security/password"
)

// Operator actions used by the accounts CLI. They bypass email delivery.

// CreateVerified creates an account that can log in immediately.
func (s *AccountService) CreateVerified(ctx context.Context, email, plain string) (*models.Account, error) {
	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	if err := password.Validate(plain); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, common.Internal(err)
	}

	account, err := s.repo().Save(ctx, &models.Account{Email: email, PasswordHash: hash, Verified: true})
	if err != nil {
		if common.IsDuplicateField(err, accounts.FieldEmail) {
			return nil, common.ErrDuplicateAccount
		}
		return nil, common.Internal(fmt.Errorf("create account: %w", err))
	}
	return account, nil
}

// MarkVerified verifies the account for email without a token.
func (s *AccountService) MarkVerified(ctx context.Context, email string) (*models.Account, error) {
	repo := s.repo()

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, common.Internal(err)
	}

	account.Verified = true
	account.VerificationToken = ""
	if _, err := repo.Save(ctx, account); err != nil {
		return nil, common.Internal(err)
	}
	return account, nil
}

// DeleteByEmail resolves email and deletes the account.
func (s *AccountService) DeleteByEmail(ctx context.Context, email string) error {
	account, err := s.repo().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return common.Internal(err)
	}
	return s.Delete(ctx, account.ID)
}

// Package services contains server-side business logic. AccountService
// implements the registration, login, password reset, deletion and
// federated sign-in flows on top of the account store.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/auth"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/server/mail"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/security/password"
	"github.com/dmitrijs2005/swengineer/internal/server/security/tokens"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is an issued session token together with its account.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      *password.Hasher
	tokens      *tokens.Issuer
	sessions    *auth.Sessions
	mailer      mail.Mailer
	templates   mail.Templates
	log         logging.Logger
	now         func() time.Time
}

func NewAccountService(m repomanager.RepositoryManager, cfg *config.Config, mailer mail.Mailer, log logging.Logger) *AccountService {
	return &AccountService{
		repomanager: m,
		hasher:      password.NewHasher(cfg.SaltRounds),
		tokens:      tokens.NewIssuer(cfg.CryptoSize, cfg.ResetTokenTTL),
		sessions:    auth.NewSessions([]byte(cfg.SecretKey), cfg.SessionTTL),
		mailer:      mailer,
		templates:   mail.Templates{PublicURL: cfg.PublicURL},
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Sessions exposes the signer so the HTTP layer can build an Authenticator
// that verifies what this service issues.
func (s *AccountService) Sessions() *auth.Sessions { return s.sessions }

func (s *AccountService) repo() accounts.Repository { return s.repomanager.Accounts() }

func validEmail(email string) (string, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !emailPattern.MatchString(email) {
		return "", common.ErrInvalidEmail
	}
	return email, nil
}

// Register creates an unverified account and mails its verification link.
// With verify set it instead issues a fresh verification token for an
// existing account and resends the link; password is then ignored.
func (s *AccountService) Register(ctx context.Context, email, plain string, verify bool) (*models.Account, error) {
	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	if verify {
		return s.resendVerification(ctx, email)
	}

	if err := password.Validate(plain); err != nil {
		return nil, err
	}

	repo := s.repo()

	_, err = repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateAccount
	case !errors.Is(err, common.ErrorNotFound):
		return nil, common.Internal(fmt.Errorf("find account: %w", err))
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, common.Internal(err)
	}
	vtoken, err := s.tokens.NewVerificationToken()
	if err != nil {
		return nil, common.Internal(err)
	}

	account := &models.Account{
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: vtoken,
	}

	account, err = repo.Save(ctx, account)
	if err != nil {
		if common.IsDuplicateField(err, accounts.FieldEmail) {
			return nil, common.ErrDuplicateAccount
		}
		return nil, common.Internal(fmt.Errorf("create account: %w", err))
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)

	if err := s.sendVerification(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) resendVerification(ctx context.Context, email string) (*models.Account, error) {
	repo := s.repo()

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, common.Internal(fmt.Errorf("find account: %w", err))
	}

	vtoken, err := s.tokens.NewVerificationToken()
	if err != nil {
		return nil, common.Internal(err)
	}
	account.VerificationToken = vtoken

	if _, err := repo.Save(ctx, account); err != nil {
		return nil, common.Internal(fmt.Errorf("save account: %w", err))
	}

	if err := s.sendVerification(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) sendVerification(ctx context.Context, account *models.Account) error {
	msg, err := s.templates.Verification(account.Email, account.VerificationToken)
	if err != nil {
		return common.Internal(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return common.Internal(fmt.Errorf("send verification email: %w", err))
	}
	return nil
}

// ConfirmVerification marks the account holding token as verified and
// clears the token. Unknown tokens yield common.ErrorNotFound.
func (s *AccountService) ConfirmVerification(ctx context.Context, token string) (*models.Account, error) {
	repo := s.repo()

	account, err := repo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.Internal(fmt.Errorf("find account: %w", err))
	}

	account.Verified = true
	account.VerificationToken = ""

	if _, err := repo.Save(ctx, account); err != nil {
		return nil, common.Internal(fmt.Errorf("save account: %w", err))
	}

	s.log.Info(ctx, "account verified", "account_id", account.ID)
	return account, nil
}

// Login checks the credentials and issues a session.
func (s *AccountService) Login(ctx context.Context, email, plain string) (*Session, error) {
	account, err := s.repo().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, common.Internal(fmt.Errorf("find account: %w", err))
	}

	if !account.HasPassword() {
		return nil, common.ErrNoPassword
	}
	if !s.hasher.Compare(plain, account.PasswordHash) {
		return nil, common.ErrInvalidCredential
	}
	if !account.Verified {
		return nil, common.ErrUnverified
	}

	return s.issueSession(account)
}

func (s *AccountService) issueSession(account *models.Account) (*Session, error) {
	token, exp, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, common.Internal(fmt.Errorf("issue session: %w", err))
	}
	return &Session{Token: token, ExpiresAt: exp, Account: account}, nil
}

// RequestReset issues a reset token for email and mails it together with
// the requester's address.
func (s *AccountService) RequestReset(ctx context.Context, email, ip string) error {
	repo := s.repo()

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return common.Internal(fmt.Errorf("find account: %w", err))
	}

	rtoken, exp, err := s.tokens.NewResetToken()
	if err != nil {
		return common.Internal(err)
	}
	account.ResetToken = rtoken
	account.ResetExpiresAt = &exp

	if _, err := repo.Save(ctx, account); err != nil {
		return common.Internal(fmt.Errorf("save account: %w", err))
	}

	msg, err := s.templates.Reset(account.Email, rtoken, ip, s.now())
	if err != nil {
		return common.Internal(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return common.Internal(fmt.Errorf("send reset email: %w", err))
	}

	s.log.Info(ctx, "password reset requested", "account_id", account.ID, "ip", ip)
	return nil
}

func (s *AccountService) findReset(ctx context.Context, token string) (*models.Account, error) {
	account, err := s.repo().FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.Internal(fmt.Errorf("find account: %w", err))
	}
	if account.ResetExpired(s.now()) {
		return nil, common.ErrTokenExpired
	}
	return account, nil
}

// CheckResetToken reports whether token is outstanding and unexpired.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.findReset(ctx, token)
	return err
}

// ConsumeReset replaces the password of the account holding token. The
// token is cleared in the same store operation, so it works once.
func (s *AccountService) ConsumeReset(ctx context.Context, token, plain string) error {
	if _, err := s.findReset(ctx, token); err != nil {
		return err
	}
	if err := password.Validate(plain); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return common.Internal(err)
	}

	account, err := s.repo().ConsumeResetToken(ctx, token, hash, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// consumed concurrently or expired since the check
			return common.ErrorNotFound
		}
		return common.Internal(fmt.Errorf("consume reset token: %w", err))
	}

	s.log.Info(ctx, "password reset", "account_id", account.ID)
	return nil
}

// Delete removes the account immediately.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	if err := s.repo().DeleteByID(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return common.Internal(fmt.Errorf("delete account: %w", err))
	}

	s.log.Info(ctx, "account deleted", "account_id", accountID)
	return nil
}

// FederatedLogin finds or creates the account for an identity asserted by
// an external provider and issues a session for it.
//
// An existing password account with the same email is linked only when the
// provider has verified the address.
func (s *AccountService) FederatedLogin(ctx context.Context, id oauth.Identity) (*Session, error) {
	if id.ExternalID == "" {
		return nil, common.ErrInvalidPrincipal
	}
	email, err := validEmail(id.Email)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		account, err = linkOrCreate(ctx, repo, id, email)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateAccount):
			return nil, err
		case errors.Is(err, common.ErrDuplicateKey):
			// a concurrent callback created the same account
			return nil, common.ErrDuplicateAccount
		}
		return nil, common.Internal(fmt.Errorf("federated login: %w", err))
	}

	s.log.Info(ctx, "federated login", "account_id", account.ID)
	return s.issueSession(account)
}

func linkOrCreate(ctx context.Context, repo accounts.Repository, id oauth.Identity, email string) (*models.Account, error) {
	account, err := repo.FindByExternalID(ctx, id.ExternalID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	account, err = repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !id.EmailVerified {
			return nil, common.ErrDuplicateAccount
		}
		account.ExternalID = id.ExternalID
		account.Verified = true
		account.VerificationToken = ""
		return repo.Save(ctx, account)
	case errors.Is(err, common.ErrorNotFound):
		return repo.Save(ctx, &models.Account{
			Email:      email,
			Verified:   id.EmailVerified,
			ExternalID: id.ExternalID,
		})
	default:
		return nil, err
	}
}

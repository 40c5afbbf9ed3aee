package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. It enforces the same
// uniqueness rules as the PostgreSQL schema and is meant for development,
// single-worker deployments and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.Account
	now   func() time.Time
	newID func() string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*models.Account),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (r *MemoryRepository) find(match func(a *models.Account) bool) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryRepository) FindByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return r.find(func(a *models.Account) bool { return a.VerificationToken == token })
}

func (r *MemoryRepository) FindByResetToken(ctx context.Context, token string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return r.find(func(a *models.Account) bool { return a.ResetToken == token })
}

func (r *MemoryRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if externalID == "" {
		return nil, common.ErrorNotFound
	}
	return r.find(func(a *models.Account) bool { return a.ExternalID == externalID })
}

// conflict returns the first unique field of a already taken by another
// account. Caller holds the write lock.
func (r *MemoryRepository) conflict(a *models.Account) string {
	for id, other := range r.byID {
		if id == a.ID {
			continue
		}
		switch {
		case other.Email == a.Email:
			return FieldEmail
		case a.VerificationToken != "" && other.VerificationToken == a.VerificationToken:
			return FieldVerificationToken
		case a.ResetToken != "" && other.ResetToken == a.ResetToken:
			return FieldResetToken
		case a.ExternalID != "" && other.ExternalID == a.ExternalID:
			return FieldExternalID
		}
	}
	return ""
}

func (r *MemoryRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := prepare(account); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stored := account.Clone()

	if stored.ID == "" {
		stored.ID = r.newID()
		stored.CreatedAt = now
	} else {
		existing, ok := r.byID[stored.ID]
		if !ok {
			return nil, common.ErrorNotFound
		}
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = now

	if field := r.conflict(stored); field != "" {
		return nil, common.DuplicateKeyError{Field: field}
	}

	r.byID[stored.ID] = stored

	account.ID = stored.ID
	account.CreatedAt = stored.CreatedAt
	account.UpdatedAt = stored.UpdatedAt
	return account, nil
}

func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, common.ErrorNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.ResetToken != token {
			continue
		}
		if a.ResetExpired(now) {
			return nil, common.ErrorNotFound
		}
		a.PasswordHash = passwordHash
		a.ResetToken = ""
		a.ResetExpiresAt = nil
		a.UpdatedAt = now
		return a.Clone(), nil
	}
	return nil, common.ErrorNotFound
}

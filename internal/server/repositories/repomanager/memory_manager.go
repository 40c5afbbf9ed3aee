package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/swengineer/internal/server/repositories/accounts"
)

// MemoryRepositoryManager serves a single in-process MemoryRepository.
// WithTx serializes transactional callers against each other; it does not
// roll back partial writes.
type MemoryRepositoryManager struct {
	repo *accounts.MemoryRepository
	txMu sync.Mutex
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: accounts.NewMemoryRepository()}
}

// RunMigrations is a no-op; the in-memory store has no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Accounts() accounts.Repository { return m.repo }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }

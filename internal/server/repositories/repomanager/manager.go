// Package repomanager owns the account store's lifecycle: opening the
// backend, running schema migrations, vending repositories and scoping
// multi-step work to a transaction.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/swengineer/internal/dbx"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	// WithTx runs fn against a repository whose writes commit together.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns a PostgreSQL manager for dsn, or an in-memory manager when
// dsn is empty.
func Open(ctx context.Context, dsn string, po dbx.PoolOptions) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}
	db, err := dbOpen(ctx, dsn, po)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db)
}

// dbOpen is a seam for tests.
var dbOpen = dbx.Open

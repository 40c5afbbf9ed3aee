package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/supervisor"
)

// workerKillDelay is how long a worker process may outlive its own
// graceful shutdown before it is killed.
const workerKillDelay = 5 * time.Second

// RunWorker builds one worker and serves until ctx is cancelled.
func RunWorker(ctx context.Context, c *config.Config, logger logging.Logger) error {
	app, err := NewApp(ctx, c, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// Migrate applies pending schema migrations. The in-memory store has none.
func Migrate(ctx context.Context, c *config.Config) error {
	if c.UsesMemoryStore() {
		return nil
	}
	store, err := openStore(ctx, c.DatabaseDSN, workerPool)
	if err != nil {
		return fmt.Errorf("store init error: %w", err)
	}
	defer store.Close()

	return store.RunMigrations(ctx)
}

// PoolShape returns the number of workers and how they are started. The
// in-memory store cannot be shared, so it and the test environment always
// get exactly one in-process worker.
func PoolShape(c *config.Config) (int, string) {
	if c.IsTest() || c.UsesMemoryStore() {
		return 1, config.WorkerModeInProcess
	}
	return c.Workers, c.WorkerMode
}

// RunPrimary migrates the store once and then supervises the worker pool
// until ctx is cancelled. args are passed to re-executed worker processes.
func RunPrimary(ctx context.Context, c *config.Config, logger logging.Logger, args []string) error {
	if err := Migrate(ctx, c); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	workers, mode := PoolShape(c)

	var launch supervisor.Launcher
	switch {
	case mode == config.WorkerModeProcess:
		launch = supervisor.Process(args, c.ShutdownTimeout+workerKillDelay, logger)
	case c.UsesMemoryStore():
		// Opened once so accounts and sessions survive a worker restart.
		store, err := openStore(ctx, c.DatabaseDSN, workerPool)
		if err != nil {
			return fmt.Errorf("store init error: %w", err)
		}
		defer store.Close()

		launch = supervisor.InProcess(func(ctx context.Context, id int) error {
			app, err := newApp(ctx, c, logger.With("worker", id), store)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		})
	default:
		launch = supervisor.InProcess(func(ctx context.Context, id int) error {
			return RunWorker(ctx, c, logger.With("worker", id))
		})
	}

	logger.Info(ctx, "primary started", "pid", os.Getpid(), "workers", workers, "mode", mode)
	return supervisor.New(workers, launch, logger).Run(ctx)
}

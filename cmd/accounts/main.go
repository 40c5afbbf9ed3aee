package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dmitrijs2005/swengineer/internal/admin"
	"github.com/dmitrijs2005/swengineer/internal/dbx"
	"github.com/dmitrijs2005/swengineer/internal/flagx"
	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/server/mail"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/services"
)

// configValueFlags are the config flags that consume the next argument.
var configValueFlags = []string{"-a", "-d", "-s", "-t", "-e", "-l", "-w", "-m", "-c", "-config", "--c", "--config"}

// the CLI runs one statement at a time
var pool = dbx.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	if cfg.UsesMemoryStore() {
		return fmt.Errorf("DATABASE_DSN (or -d) is required")
	}

	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)

	store, err := repomanager.Open(ctx, cfg.DatabaseDSN, pool)
	if err != nil {
		return err
	}
	defer store.Close()

	accounts := services.NewAccountService(store, cfg, mail.NewLogMailer(logger), logger)

	app := admin.NewApp(accounts, store, os.Stdin, os.Stdout)
	app.AssumeYes(slices.Contains(args, "-y"))

	return app.Run(ctx, flagx.Positional(args, configValueFlags))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel).With("pid", os.Getpid())

	if id, ok := supervisor.WorkerID(); ok {
		return server.RunWorker(ctx, cfg, logger.With("worker", id))
	}
	return server.RunPrimary(ctx, cfg, logger, os.Args[1:])
}

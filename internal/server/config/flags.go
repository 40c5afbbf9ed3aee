package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session signing secret
//	-t int      session validity, minutes
//	-e string   environment (development|production|test)
//	-l string   log level
//	-w int      number of workers
//	-m string   worker mode (process|inprocess)
//
// Arguments are first filtered with flagx.FilterArgs so flags belonging to
// other components do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-e", "-l", "-w", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.Env, "e", config.Env, "environment")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.Workers, "w", config.Workers, "number of workers")
	fs.StringVar(&config.WorkerMode, "m", config.WorkerMode, "worker mode")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	return nil
}

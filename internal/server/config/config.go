// Package config handles configuration for the account service,
// including defaults, JSON overlay, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/swengineer/internal/common"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	WorkerModeProcess   = "process"
	WorkerModeInProcess = "inprocess"

	MailTransportSMTP = "smtp"
	MailTransportS3   = "s3"
	MailTransportLog  = "log"

	defaultSecretKey = "secretKey"
)

// Config holds runtime settings for the server and the admin CLI.
//
// An empty DatabaseDSN selects the in-memory account store.
type Config struct {
	HTTPAddr        string
	Env             string
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DatabaseDSN string

	SecretKey     string
	SessionTTL    time.Duration
	SaltRounds    int
	CryptoSize    int
	ResetTokenTTL time.Duration

	PublicURL     string
	MailTransport string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPSender    string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	GoogleClientID     string
	GoogleClientSecret string
	APIURI             string

	Workers    int
	WorkerMode string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and is rejected in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.Env = EnvDevelopment
	c.LogLevel = "info"
	c.ReadTimeout = 10 * time.Second
	c.WriteTimeout = 15 * time.Second
	c.IdleTimeout = 60 * time.Second
	c.ShutdownTimeout = 10 * time.Second

	c.SecretKey = defaultSecretKey
	c.SessionTTL = 24 * time.Hour
	c.SaltRounds = bcrypt.DefaultCost
	c.CryptoSize = 32
	c.ResetTokenTTL = time.Hour

	c.PublicURL = "http://localhost:8080"
	c.SMTPPort = 465
	c.SMTPSender = "noreply@swengineer.dev"

	c.S3Region = "us-east-1"
	c.APIURI = "http://localhost:8080"

	c.Workers = runtime.NumCPU()
	c.WorkerMode = WorkerModeProcess
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// args usually is os.Args[1:].
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.MailTransport == "" {
		cfg.MailTransport = defaultMailTransport(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultMailTransport(c *Config) string {
	if c.SMTPHost != "" {
		return MailTransportSMTP
	}
	return MailTransportLog
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

func (c *Config) IsTest() bool { return c.Env == EnvTest }

// UsesMemoryStore reports whether no database is configured.
func (c *Config) UsesMemoryStore() bool { return c.DatabaseDSN == "" }

// GoogleEnabled reports whether federated login is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		bad("unknown environment %q", c.Env)
	}
	if c.HTTPAddr == "" {
		bad("http address is empty")
	}
	if c.SecretKey == "" {
		bad("secret key is empty")
	}
	if c.IsProduction() && (c.SecretKey == defaultSecretKey || len(c.SecretKey) < 32) {
		bad("secret key must be at least 32 characters in production")
	}
	if c.SessionTTL <= 0 {
		bad("session ttl must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		bad("reset token ttl must be positive")
	}
	if c.SaltRounds < bcrypt.MinCost || c.SaltRounds > bcrypt.MaxCost {
		bad("salt rounds must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.CryptoSize < common.MinTokenSize {
		bad("crypto size must be at least %d bytes", common.MinTokenSize)
	}
	if c.Workers < 1 {
		bad("workers must be at least 1")
	}
	switch c.WorkerMode {
	case WorkerModeProcess, WorkerModeInProcess:
	default:
		bad("unknown worker mode %q", c.WorkerMode)
	}
	switch c.MailTransport {
	case MailTransportSMTP:
		if c.SMTPHost == "" {
			bad("smtp transport requires SMTP_HOST")
		}
	case MailTransportS3:
		if c.S3Bucket == "" {
			bad("s3 transport requires S3_BUCKET")
		}
	case MailTransportLog, "":
	default:
		bad("unknown mail transport %q", c.MailTransport)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

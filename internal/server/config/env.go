package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/flagx"
)

// parseEnv overlays environment variables. Unset or blank variables keep
// the current value. Malformed numbers and durations are collected and
// returned together.
func parseEnv(c *Config) error {
	var errs []error
	intVar := func(dst *int, key string) {
		v, err := flagx.EnvInt(key, *dst)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = v
	}
	durationVar := func(dst *time.Duration, key string) {
		v, err := flagx.EnvDuration(key, *dst)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = v
	}

	c.HTTPAddr = flagx.EnvString("HTTP_ADDR", c.HTTPAddr)
	c.Env = flagx.EnvString("APP_ENV", c.Env)
	c.LogLevel = flagx.EnvString("LOG_LEVEL", c.LogLevel)

	c.DatabaseDSN = flagx.EnvString("DATABASE_DSN", c.DatabaseDSN)

	c.SecretKey = flagx.EnvString("API_SECRET", c.SecretKey)
	durationVar(&c.SessionTTL, "SESSION_TTL")
	intVar(&c.SaltRounds, "SALT_ROUNDS")
	intVar(&c.CryptoSize, "CRYPTO_SIZE")
	durationVar(&c.ResetTokenTTL, "RESET_TOKEN_TTL")

	c.PublicURL = flagx.EnvString("PUBLIC_URL", c.PublicURL)
	c.MailTransport = flagx.EnvString("MAIL_TRANSPORT", c.MailTransport)
	c.SMTPHost = flagx.EnvString("SMTP_HOST", c.SMTPHost)
	intVar(&c.SMTPPort, "SMTP_PORT")
	c.SMTPUsername = flagx.EnvString("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = flagx.EnvString("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPSender = flagx.EnvString("SMTP_SENDER", c.SMTPSender)

	c.S3Bucket = flagx.EnvString("S3_BUCKET", c.S3Bucket)
	c.S3Region = flagx.EnvString("S3_REGION", c.S3Region)
	c.S3BaseEndpoint = flagx.EnvString("S3_ENDPOINT", c.S3BaseEndpoint)
	c.S3AccessKey = flagx.EnvString("S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = flagx.EnvString("S3_SECRET_KEY", c.S3SecretKey)

	c.GoogleClientID = flagx.EnvString("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = flagx.EnvString("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.APIURI = flagx.EnvString("API_URI", c.APIURI)

	intVar(&c.Workers, "WORKERS")
	c.WorkerMode = flagx.EnvString("WORKER_MODE", c.WorkerMode)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/flagx"
	"github.com/dmitrijs2005/swengineer/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1h" and integer nanoseconds are accepted. Absent
// or zero fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	Env             string         `json:"env"`
	LogLevel        string         `json:"log_level"`
	ReadTimeout     timex.Duration `json:"read_timeout"`
	WriteTimeout    timex.Duration `json:"write_timeout"`
	IdleTimeout     timex.Duration `json:"idle_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	DatabaseDSN string `json:"database_dsn"`

	SecretKey     string         `json:"secret_key"`
	SessionTTL    timex.Duration `json:"session_ttl"`
	SaltRounds    int            `json:"salt_rounds"`
	CryptoSize    int            `json:"crypto_size"`
	ResetTokenTTL timex.Duration `json:"reset_token_ttl"`

	PublicURL     string `json:"public_url"`
	MailTransport string `json:"mail_transport"`
	SMTPHost      string `json:"smtp_host"`
	SMTPPort      int    `json:"smtp_port"`
	SMTPUsername  string `json:"smtp_username"`
	SMTPPassword  string `json:"smtp_password"`
	SMTPSender    string `json:"smtp_sender"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	APIURI             string `json:"api_uri"`

	Workers    int    `json:"workers"`
	WorkerMode string `json:"worker_mode"`
}

// parseJson loads values from the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.JSONConfigPath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v timex.Duration) {
		if v.Duration != 0 {
			*dst = v.Duration
		}
	}

	str(&config.HTTPAddr, c.HTTPAddr)
	str(&config.Env, c.Env)
	str(&config.LogLevel, c.LogLevel)
	setDuration(&config.ReadTimeout, c.ReadTimeout)
	setDuration(&config.WriteTimeout, c.WriteTimeout)
	setDuration(&config.IdleTimeout, c.IdleTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	str(&config.DatabaseDSN, c.DatabaseDSN)

	str(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTTL, c.SessionTTL)
	num(&config.SaltRounds, c.SaltRounds)
	num(&config.CryptoSize, c.CryptoSize)
	setDuration(&config.ResetTokenTTL, c.ResetTokenTTL)

	str(&config.PublicURL, c.PublicURL)
	str(&config.MailTransport, c.MailTransport)
	str(&config.SMTPHost, c.SMTPHost)
	num(&config.SMTPPort, c.SMTPPort)
	str(&config.SMTPUsername, c.SMTPUsername)
	str(&config.SMTPPassword, c.SMTPPassword)
	str(&config.SMTPSender, c.SMTPSender)

	str(&config.S3Bucket, c.S3Bucket)
	str(&config.S3Region, c.S3Region)
	str(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	str(&config.S3AccessKey, c.S3AccessKey)
	str(&config.S3SecretKey, c.S3SecretKey)

	str(&config.GoogleClientID, c.GoogleClientID)
	str(&config.GoogleClientSecret, c.GoogleClientSecret)
	str(&config.APIURI, c.APIURI)

	num(&config.Workers, c.Workers)
	str(&config.WorkerMode, c.WorkerMode)
}

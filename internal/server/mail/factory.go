package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
)

// New selects the transport named by cfg.MailTransport.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (Mailer, error) {
	switch cfg.MailTransport {
	case config.MailTransportSMTP:
		m, err := NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.MailTransportS3:
		m, err := NewS3Mailer(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3BaseEndpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Sender:    cfg.SMTPSender,
		}, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.MailTransportLog, "":
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

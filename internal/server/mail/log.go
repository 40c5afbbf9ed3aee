package mail

import (
	"context"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

// LogMailer records that a message would have been sent. The body, which
// carries one-time tokens, is only logged at debug level.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.log.Info(ctx, "email captured", "transport", "log", "to", msg.To, "subject", msg.Subject)
	m.log.Debug(ctx, "email body", "to", msg.To, "text", msg.Text)
	return nil
}

// Package mail renders account emails and hands them to a delivery
// transport: SMTP, an S3 capture bucket for development, or the log.
package mail

import (
	"context"
	"errors"
)

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers a rendered message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("mail: no recipient")

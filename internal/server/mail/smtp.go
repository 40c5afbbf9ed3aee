package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"strconv"

	"github.com/dajohi/goemail"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

// smtpClient is the part of *goemail.SMTP used here.
type smtpClient interface {
	Send(msg *goemail.Message) error
}

// SMTPMailer sends messages through an SMTPS relay.
type SMTPMailer struct {
	client      smtpClient
	mailName    string
	mailAddress string
	log         logging.Logger
}

// newGoemailSMTP is a seam for tests.
var newGoemailSMTP = func(rawURL string, tlsConfig *tls.Config) (smtpClient, error) {
	return goemail.NewSMTP(rawURL, tlsConfig)
}

// NewSMTPMailer builds an SMTPS mailer. sender may carry a display name,
// e.g. "swengineer <noreply@swengineer.dev>".
func NewSMTPMailer(host string, port int, user, password, sender string, log logging.Logger) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is empty")
	}

	a, err := mail.ParseAddress(sender)
	if err != nil {
		return nil, fmt.Errorf("parse sender address: %w", err)
	}

	u := &url.URL{
		Scheme: "smtps",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}

	client, err := newGoemailSMTP(u.String(), &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	log.Info(context.Background(), "mail transport configured",
		"transport", "smtp", "host", u.Host, "sender", a.Address)

	return &SMTPMailer{
		client:      client,
		mailName:    a.Name,
		mailAddress: a.Address,
		log:         log,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	em := goemail.NewMessage(m.mailAddress, msg.Subject, msg.Text)
	em.SetName(m.mailName)
	em.AddTo(msg.To)

	if err := m.client.Send(em); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

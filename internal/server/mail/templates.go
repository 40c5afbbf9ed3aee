package mail

import (
	"bytes"
	"strings"
	"text/template"
	"time"
)

const (
	verificationSubject = "Email Verification"
	resetSubject        = "Password Reset"
)

var verificationTmpl = template.Must(template.New("verification").Parse(
	`Verify your email address to finish registering your swengineer account.
Please click on the following link, or paste this into your browser to complete the process:

{{.Link}}

`))

var resetTmpl = template.Must(template.New("reset").Parse(
	`You are receiving this because you (or someone else) have requested the reset of the password for your account.
Please click on the following link, or paste this into your browser to complete the process:

{{.Link}}

If you did not request this, please ignore this email and your password will remain unchanged.

Email: {{.Email}}
IP Address: {{.IP}}
Created: {{.Created}}
`))

// Templates builds account emails whose links point at PublicURL.
type Templates struct {
	PublicURL string
}

func (t Templates) link(kind, token string) string {
	return strings.TrimRight(t.PublicURL, "/") + "/" + kind + "/" + token
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Verification renders the message sent after registration and on resend.
func (t Templates) Verification(to, token string) (Message, error) {
	text, err := render(verificationTmpl, struct{ Link string }{t.link("register", token)})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: verificationSubject, Text: text}, nil
}

// Reset renders the password reset message, including the requester's IP
// and the request time.
func (t Templates) Reset(to, token, ip string, created time.Time) (Message, error) {
	text, err := render(resetTmpl, struct {
		Link, Email, IP, Created string
	}{
		Link:    t.link("reset", token),
		Email:   to,
		IP:      ip,
		Created: created.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: resetSubject, Text: text}, nil
}

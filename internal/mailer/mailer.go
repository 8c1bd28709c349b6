// Package mailer delivers outbound email over SMTP.
package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/dmarcu/contacts-api/internal/config"
)

// Mailer sends HTML email through the configured SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.SMTPFrom,
	}
}

// Send delivers a single HTML message. Errors bubble to the caller; the
// queue consumer decides what to do with a failed delivery, there is no
// retry here.
func (m *Mailer) Send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return m.dialer.DialAndSend(msg)
}

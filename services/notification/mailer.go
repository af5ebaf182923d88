package notification

import (
	"rentdesk-billing/pkg/config"

	"go.uber.org/fx"
	"gopkg.in/gomail.v2"
)

// Mailer sends rendered messages over SMTP.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

type MailerParams struct {
	fx.In
	Config *config.Config
}

func NewMailer(p MailerParams) Mailer {
	cfg := p.Config.SMTP
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

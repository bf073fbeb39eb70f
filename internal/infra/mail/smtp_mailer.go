// Package mail delivers email through SMTP on a background worker pool.
package mail

import (
	"context"
	"log/slog"
	"strings"

	"tradepost/config"
	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
)

const defaultSMTPPort = 587

type smtpMailer struct {
	cfg *config.MailConfig
}

// NewMailer returns an SMTP mailer, or nil when no SMTP host is configured.
func NewMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	if cfg.Mail == nil || strings.TrimSpace(cfg.Mail.Host) == "" {
		logger.Info("Mail transport not configured, email delivery disabled")

		return nil
	}

	return &smtpMailer{cfg: cfg.Mail}
}

// Send dials the SMTP server and delivers one message.
func (m *smtpMailer) Send(ctx context.Context, msg *service.EmailMessage) error {
	message, err := buildMessage(m.cfg.From, msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return errors.Wrapf(err, "send mail to %s", msg.To)
	}

	return nil
}

func (m *smtpMailer) clientOptions() []gomail.Option {
	port := m.cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}

	opts := []gomail.Option{gomail.WithPort(port)}
	if m.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	return opts
}

// buildMessage converts a domain message into a plain text MIME message.
func buildMessage(from string, msg *service.EmailMessage) (*gomail.Msg, error) {
	message := gomail.NewMsg()
	if err := message.From(from); err != nil {
		return nil, errors.Wrapf(err, "invalid sender %q", from)
	}
	if err := message.To(msg.To); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient %q", msg.To)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(gomail.TypeTextPlain, msg.Body)

	return message, nil
}

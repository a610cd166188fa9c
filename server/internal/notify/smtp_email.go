package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// SMTPEmailSender реализует EmailSender поверх SMTP (gomail)
type SMTPEmailSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTPEmailSender создает SMTP клиента
func NewSMTPEmailSender(host string, port int, user, password, from, fromName string, logger *zap.Logger) *SMTPEmailSender {
	return &SMTPEmailSender{
		dialer:   gomail.NewDialer(host, port, user, password),
		from:     from,
		fromName: fromName,
		logger:   logger,
	}
}

func (s *SMTPEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email message has no recipients")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	s.logger.Debug("Alert email sent", zap.Strings("to", msg.To))
	return nil
}

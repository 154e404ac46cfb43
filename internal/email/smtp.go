package email

import (
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/bumil/fallcare-auth/internal/config"
)

// SMTPSender отправляет почту через обычный SMTP-релей с PLAIN-аутентификацией.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender создаёт SMTP-транспорт из конфигурации.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &SMTPSender{
		addr: net.JoinHostPort(cfg.SMTP.Host, cfg.SMTP.Port),
		auth: auth,
		from: cfg.From,
	}
}

// Send отправляет HTML-письмо одним сообщением.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	const op = "email.SMTPSender.Send"

	msg := buildMessage(s.from, to, subject, htmlBody)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// buildMessage собирает MIME-сообщение с HTML-телом в UTF-8.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	return []byte(b.String())
}

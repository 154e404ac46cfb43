// email отправляет исходящую почту через один из транспортов:
// SMTP или HTTP API Resend. Реализация выбирается конфигурацией
// на старте; сервис работает только с интерфейсом Sender.
package email

import (
	"fmt"

	"github.com/bumil/fallcare-auth/internal/config"
)

// Sender — единый контракт исходящей почты.
type Sender interface {
	// Send отправляет письмо с HTML-телом.
	Send(to, subject, htmlBody string) error
}

// NewSender создаёт транспорт по конфигурации.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	const op = "email.NewSender"

	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "resend":
		return NewResendSender(cfg), nil
	default:
		return nil, fmt.Errorf("%s: unknown provider %q", op, cfg.Provider)
	}
}

// VerificationSubject — тема письма с кодом подтверждения.
const VerificationSubject = "Fallcare signup email verification"

// VerificationBody формирует HTML-письмо с кодом подтверждения.
// Код действителен 3 минуты.
func VerificationBody(code string) string {
	return fmt.Sprintf(
		`<html><body style="font-family: Arial, sans-serif;">`+
			`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`+
			`<h2 style="color: #333; text-align: center;">Email verification</h2>`+
			`<div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center;">`+
			`<p style="font-size: 16px; margin-bottom: 20px;">Enter the verification code below:</p>`+
			`<div style="font-size: 32px; font-weight: bold; color: #007bff; letter-spacing: 5px; margin: 20px 0;">%s</div>`+
			`<p style="color: #dc3545; font-weight: bold;">The code expires in 3 minutes.</p>`+
			`</div>`+
			`<p style="font-size: 14px; color: #666; text-align: center; margin-top: 20px;">`+
			`If you did not request this, ignore this email.`+
			`</p>`+
			`</div>`+
			`</body></html>`,
		code,
	)
}

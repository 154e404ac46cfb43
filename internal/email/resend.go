package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bumil/fallcare-auth/internal/config"
)

// ResendSender отправляет почту через HTTP API Resend (POST /emails).
type ResendSender struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// NewResendSender создаёт транспорт Resend из конфигурации.
func NewResendSender(cfg config.EmailConfig) *ResendSender {
	baseURL := cfg.Resend.BaseURL
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}

	return &ResendSender{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  cfg.Resend.APIKey,
		from:    cfg.From,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send отправляет HTML-письмо через API.
func (s *ResendSender) Send(to, subject, htmlBody string) error {
	const op = "email.ResendSender.Send"

	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Тело читаем ограниченно: детали нужны только для диагностики.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, detail)
	}

	return nil
}

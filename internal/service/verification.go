package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/bumil/fallcare-auth/internal/email"
	"github.com/bumil/fallcare-auth/internal/pkg/log"
	"github.com/bumil/fallcare-auth/internal/pkg/redact"
	"github.com/bumil/fallcare-auth/internal/storage"
)

// codeTTL — срок жизни кода подтверждения e-mail.
const codeTTL = 3 * time.Minute

// SendVerificationCode выпускает одноразовый код для email и отправляет
// его письмом.
//
// Запись кода в хранилище — критичный путь: её сбой возвращается вызывающему.
// Доставка письма — best-effort: сбой логируется и проглатывается, ответ
// остаётся успешным (fire-and-forget).
func (s *Service) SendVerificationCode(ctx context.Context, toEmail string) error {
	const op = "service.verification.SendVerificationCode"

	lg := log.From(ctx)

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.codes.SaveCode(ctx, toEmail, code, codeTTL); err != nil {
		lg.Error("verification_code_save_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(toEmail)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.Send(toEmail, email.VerificationSubject, email.VerificationBody(code)); err != nil {
		lg.Warn("verification_email_send_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(toEmail)),
			slog.String("err", err.Error()),
		)
		return nil
	}

	lg.Info("verification_code_sent",
		slog.String("op", op),
		slog.String("email", redact.Email(toEmail)),
	)

	return nil
}

// VerifyCode проверяет код подтверждения.
//
// Отсутствующая запись — ErrCodeExpired; несовпавший код (после обрезки
// пробелов во вводе) — ErrInvalidVerificationCode, запись при этом
// сохраняется для повторной попытки. Совпавший код удаляется: каждый код
// срабатывает не более одного раза.
func (s *Service) VerifyCode(ctx context.Context, toEmail, inputCode string) error {
	const op = "service.verification.VerifyCode"

	lg := log.From(ctx)

	stored, err := s.codes.Code(ctx, toEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("verification_code_expired",
				slog.String("op", op),
				slog.String("email", redact.Email(toEmail)),
			)
			return fmt.Errorf("%s: %w", op, ErrCodeExpired)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if stored != strings.TrimSpace(inputCode) {
		lg.Warn("verification_code_mismatch",
			slog.String("op", op),
			slog.String("email", redact.Email(toEmail)),
		)
		return fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
	}

	if err := s.codes.DeleteCode(ctx, toEmail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// generateCode возвращает 6-значный цифровой код с ведущими нулями,
// каждая цифра — из криптографически стойкого источника.
func generateCode() (string, error) {
	const op = "service.verification.generateCode"

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bumil/fallcare-auth/internal/models"
	"github.com/bumil/fallcare-auth/internal/pkg/log"
	"github.com/bumil/fallcare-auth/internal/storage"
)

// SignUpParams — данные регистрации нового опекуна.
type SignUpParams struct {
	Username        string
	Password        string
	PasswordConfirm string
	Email           string
	Zipcode         string
	Address         string
	AddressLine2    string
}

// SignUp создаёт новую учётную запись и возвращает её ID.
//
// Пароль и подтверждение должны совпадать; занятый username — ErrUsernameTaken,
// занятый email — ErrEmailTaken.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) (int64, error) {
	const op = "service.signup.SignUp"

	lg := log.From(ctx)

	if p.Password != p.PasswordConfirm {
		return 0, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	_, err := s.users.UserByUsername(ctx, p.Username)
	if err == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(p.Password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hashed,
		Zipcode:      p.Zipcode,
		Address:      p.Address,
		AddressLine2: p.AddressLine2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.users.SaveUser(ctx, user)
	if err != nil {
		switch {
		// Конкурентная регистрация могла проскочить предварительную проверку
		// username: различаем поле по ошибке хранилища.
		case errors.Is(err, storage.ErrUsernameExists):
			return 0, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		case errors.Is(err, storage.ErrAlreadyExists):
			return 0, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("signup_ok",
		slog.String("op", op),
		slog.Int64("user_id", id),
	)

	return id, nil
}

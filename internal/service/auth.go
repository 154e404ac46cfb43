package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bumil/fallcare-auth/internal/models"
	"github.com/bumil/fallcare-auth/internal/pkg/log"
	"github.com/bumil/fallcare-auth/internal/storage"
	"github.com/bumil/fallcare-auth/internal/tokens"
)

// Login выполняет вход по username+пароль и регистрирует refresh-сессию
// для устройства device.
//
// Любая причина отказа аутентификации (нет пользователя, неверный пароль)
// схлопывается в ErrInvalidCredentials. Новая сессия вытесняет предыдущую
// для того же (userID, device); сессии других устройств не затрагиваются.
func (s *Service) Login(ctx context.Context, username, password, device string) (*models.LoginResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login_unknown_user", slog.String("op", op), slog.String("username", username))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Warn("login_bad_password", slog.String("op", op), slog.String("username", username))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user, device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_ok",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
		slog.String("device", device),
	)

	return &models.LoginResult{
		UserID:   user.ID,
		Username: user.Username,
		Tokens:   *pair,
	}, nil
}

// Logout удаляет refresh-сессию (userID, device) и тем самым делает
// невозможным переиздание по ранее выданному refresh-токену.
//
// Ошибка связи с хранилищем не фатальна: сессия всё равно истечёт по TTL,
// поэтому сбой логируется и проглатывается.
func (s *Service) Logout(ctx context.Context, userID int64, device string) {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	deleted, err := s.sessions.Delete(ctx, userID, device)
	if err != nil {
		lg.Warn("logout_session_delete_failed",
			slog.String("op", op),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}

	lg.Debug("logout_session_deleted",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Bool("deleted", deleted),
	)
}

// Reissue обменивает ещё действительный refresh-токен на новый access-токен.
//
// Порядок проверок фиксирован:
//  1. пустой токен — ErrRefreshTokenNotFound;
//  2. не refresh-токен — ErrRefreshTokenInvalid;
//  3. сессии (uid, device) нет — ErrRefreshTokenExpired;
//  4. сохранённый токен != предъявленному — ErrRefreshTokenMismatch.
//
// Access-токен выпускается из актуальной записи справочника пользователей,
// а не из claims предъявленного токена, чтобы смена username/email
// отражалась сразу. Сессия сохраняется заново с обновлённым TTL; ротация
// refresh-токена управляется конфигурацией (RotateRefresh).
func (s *Service) Reissue(ctx context.Context, refreshToken, device string) (*models.TokenPair, error) {
	const op = "service.auth.Reissue"

	lg := log.From(ctx)

	if refreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenNotFound)
	}

	claims, err := s.tokens.Parse(refreshToken)
	if err != nil || claims.Kind != tokens.KindRefresh {
		lg.Warn("reissue_invalid_token", slog.String("op", op))
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenInvalid)
	}

	stored, err := s.sessions.Session(ctx, claims.UserID, device)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("reissue_session_absent",
				slog.String("op", op),
				slog.Int64("user_id", claims.UserID),
				slog.String("device", device),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if stored != refreshToken {
		lg.Warn("reissue_token_mismatch",
			slog.String("op", op),
			slog.Int64("user_id", claims.UserID),
			slog.String("device", device),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenMismatch)
	}

	user, err := s.users.UserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nextRefresh := refreshToken
	if s.cfg.RotateRefresh {
		nextRefresh, err = s.tokens.IssueRefresh(user.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.sessions.Save(ctx, user.ID, device, nextRefresh, s.cfg.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("reissue_ok",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
		slog.String("device", device),
		slog.Bool("rotated", s.cfg.RotateRefresh),
	)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    nextRefresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// issueTokenPair выпускает пару токенов и регистрирует refresh-сессию
// для устройства, вытесняя предыдущую (delete-then-set, см. хранилище:
// два шага не атомарны относительно конкурентных писателей).
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, device string) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	lg := log.From(ctx)

	now := time.Now().UTC()

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Username, user.Email)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.sessions.Delete(ctx, user.ID, device); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sessions.Save(ctx, user.ID, device, refreshToken, s.cfg.RefreshTokenTTL); err != nil {
		lg.Error("session_save_failed",
			slog.String("op", op),
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

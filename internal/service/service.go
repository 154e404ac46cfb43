// service содержит бизнес-логику auth-сервиса: вход/выход, переиздание
// токенов, выпуск и проверку кодов подтверждения e-mail, регистрацию.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилища потокобезопасны.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/bumil/fallcare-auth/internal/config"
	"github.com/bumil/fallcare-auth/internal/email"
	"github.com/bumil/fallcare-auth/internal/storage"
	"github.com/bumil/fallcare-auth/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или учётка отключена. Причина намеренно не раскрывается, чтобы не давать
	// перечислять учётные записи. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCodeExpired — код подтверждения истёк либо не запрашивался. HTTP 400.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrInvalidVerificationCode — код подтверждения не совпал; запись
	// сохраняется для повторной попытки в пределах TTL. HTTP 400.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrRefreshTokenNotFound — refresh-токен не предъявлен. HTTP 401.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrRefreshTokenInvalid — предъявленный токен не является валидным
	// refresh-токеном (битый, истёкший, либо это access-токен). HTTP 401.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")

	// ErrRefreshTokenExpired — сессия (userID, device) отсутствует в хранилище:
	// истекла по TTL или была удалена при logout. HTTP 401.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrRefreshTokenMismatch — предъявленный токен не совпал с активной
	// сессией: устаревший/replayed токен, вытесненный более новым входом
	// на этом же устройстве. HTTP 401.
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")

	// ErrPasswordMismatch — пароль и его подтверждение не совпали. HTTP 400.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrUsernameTaken — username уже занят. HTTP 409.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	users    storage.UserStorage
	sessions storage.SessionStorage
	codes    storage.CodeStorage
	tokens   *tokens.Manager
	mailer   email.Sender
	cfg      config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(
	users storage.UserStorage,
	sessions storage.SessionStorage,
	codes storage.CodeStorage,
	tm *tokens.Manager,
	mailer email.Sender,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		codes:    codes,
		tokens:   tm,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Tokens возвращает менеджер токенов сервиса (нужен HTTP-слою для
// построения фильтра аутентификации поверх того же секрета).
func (s *Service) Tokens() *tokens.Manager {
	return s.tokens
}

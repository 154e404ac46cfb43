// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку бизнес-логики (sentinel-ошибки пакетов
// service/tokens), а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bumil/fallcare-auth/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrInvalidArgument — тело запроса не разобралось или не прошло валидацию.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated — запрос требует аутентифицированную личность.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку бизнес-логики в HTTP-статус и унифицированный
// ответ для фронта.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - известный sentinel — маппится по таблице ниже;
//   - прочее (включая сбои связи с хранилищем) — 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, envelope("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest, envelope("password_mismatch", "password mismatch")
	case errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest, envelope("code_expired", "verification code expired")
	case errors.Is(err, service.ErrInvalidVerificationCode):
		return http.StatusBadRequest, envelope("invalid_verification_code", "invalid verification code")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, envelope("invalid_credentials", "invalid credentials")
	case errors.Is(err, service.ErrRefreshTokenNotFound):
		return http.StatusUnauthorized, envelope("refresh_token_not_found", "refresh token not found")
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		return http.StatusUnauthorized, envelope("refresh_token_invalid", "refresh token invalid")
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, envelope("refresh_token_expired", "refresh token expired")
	case errors.Is(err, service.ErrRefreshTokenMismatch):
		return http.StatusUnauthorized, envelope("refresh_token_mismatch", "refresh token mismatch")
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, envelope("unauthenticated", "unauthenticated")
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, envelope("username_taken", "username already taken")
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, envelope("email_taken", "email already taken")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, envelope("deadline_exceeded", "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, envelope("canceled", "canceled")
	default:
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func envelope(code, msg string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

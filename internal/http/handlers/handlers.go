package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bumil/fallcare-auth/internal/models"
	"github.com/bumil/fallcare-auth/internal/service"
)

// refreshCookieName — имя HttpOnly-cookie с refresh-токеном.
const refreshCookieName = "refresh_token"

// AuthService — контракт бизнес-логики, нужный HTTP-хендлерам.
// Реализуется *service.Service.
type AuthService interface {
	SignUp(ctx context.Context, p service.SignUpParams) (int64, error)
	SendVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	Login(ctx context.Context, username, password, device string) (*models.LoginResult, error)
	Logout(ctx context.Context, userID int64, device string)
	Reissue(ctx context.Context, refreshToken, device string) (*models.TokenPair, error)
}

var _ AuthService = (*service.Service)(nil)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	auth       AuthService
	refreshTTL time.Duration
}

func New(auth AuthService, refreshTTL time.Duration) *Handlers {
	return &Handlers{auth: auth, refreshTTL: refreshTTL}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// setRefreshCookie выставляет refresh-токен HttpOnly-cookie.
// Secure + SameSite=None: фронт живёт на другом origin.
func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearRefreshCookie просрочивает refresh-cookie (Max-Age=0).
func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// setAuthorizationHeader кладёт свежий access-токен в ответ.
func setAuthorizationHeader(w http.ResponseWriter, accessToken string) {
	w.Header().Set("Authorization", "Bearer "+accessToken)
}

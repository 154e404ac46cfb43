package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/bumil/fallcare-auth/internal/errors"
	"github.com/bumil/fallcare-auth/internal/http/middleware"
	"github.com/bumil/fallcare-auth/internal/service"
)

type signUpRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Email           string `json:"email"`
	Zipcode         string `json:"zipcode"`
	Address         string `json:"address"`
	AddressLine2    string `json:"address_line2,omitempty"`
}

type signUpResponse struct {
	UserID int64 `json:"user_id"`
}

// SignUp — POST /auth/signup.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var in signUpRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if in.Username == "" || in.Password == "" || in.Email == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	id, err := h.auth.SignUp(r.Context(), service.SignUpParams{
		Username:        strings.TrimSpace(in.Username),
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
		Email:           strings.TrimSpace(in.Email),
		Zipcode:         in.Zipcode,
		Address:         in.Address,
		AddressLine2:    in.AddressLine2,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signUpResponse{UserID: id})
}

type emailRequest struct {
	Email string `json:"email"`
}

// SendEmailCode — POST /auth/email/code.
// Ответ всегда успешный при успешной записи кода: доставка письма —
// fire-and-forget.
func (h *Handlers) SendEmailCode(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decodeStrict(r, &in); err != nil || in.Email == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.auth.SendVerificationCode(r.Context(), strings.TrimSpace(in.Email)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type emailVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyEmailCode — POST /auth/email/verify.
func (h *Handlers) VerifyEmailCode(w http.ResponseWriter, r *http.Request) {
	var in emailVerifyRequest
	if err := decodeStrict(r, &in); err != nil || in.Email == "" || in.Code == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.auth.VerifyCode(r.Context(), strings.TrimSpace(in.Email), in.Code); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceInfo string `json:"device_info"`
}

type loginResponse struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

// Login — POST /auth/login.
// Access-токен уходит в заголовке Authorization и в теле,
// refresh-токен — только HttpOnly-cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil || in.Username == "" || in.Password == "" || in.DeviceInfo == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	res, err := h.auth.Login(r.Context(), in.Username, in.Password, in.DeviceInfo)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	setAuthorizationHeader(w, res.Tokens.AccessToken)
	h.setRefreshCookie(w, res.Tokens.RefreshToken)

	writeJSON(w, http.StatusOK, loginResponse{
		UserID:      res.UserID,
		Username:    res.Username,
		AccessToken: res.Tokens.AccessToken,
	})
}

type logoutRequest struct {
	DeviceInfo string `json:"device_info"`
}

// Logout — POST /auth/logout; требует аутентифицированную личность.
// Удаляет refresh-сессию устройства и просрочивает cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil || in.DeviceInfo == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	h.auth.Logout(r.Context(), identity.UserID, in.DeviceInfo)

	h.clearRefreshCookie(w)

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

type refreshRequest struct {
	DeviceInfo string `json:"device_info"`
}

// Refresh — POST /auth/refresh.
// Refresh-токен читается из HttpOnly-cookie; при успехе ответ несёт
// свежий access-токен в заголовке и (возможно ротированный) refresh
// в новой cookie.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.DeviceInfo == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	var refreshToken string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = c.Value
	}

	pair, err := h.auth.Reissue(r.Context(), refreshToken, in.DeviceInfo)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	setAuthorizationHeader(w, pair.AccessToken)
	h.setRefreshCookie(w, pair.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]string{"status": "reissued"})
}

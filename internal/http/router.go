package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bumil/fallcare-auth/internal/http/handlers"
	"github.com/bumil/fallcare-auth/internal/http/middleware"
	"github.com/bumil/fallcare-auth/internal/tokens"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration
	Whitelist []string
	BasePath  string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, tm *tokens.Manager, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),                         // безопасно ловим паники
		middleware.RequestID(),                       // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),              // кладём request-scoped логгер в контекст и логируем
		middleware.Authenticate(tm, opts.Whitelist),  // превращаем bearer-токен в личность в контексте
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/email/code", h.SendEmailCode)
	r.Post("/auth/email/verify", h.VerifyEmailCode)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/refresh", h.Refresh)
}

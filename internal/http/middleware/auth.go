package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	logctx "github.com/bumil/fallcare-auth/internal/pkg/log"

	"github.com/bumil/fallcare-auth/internal/models"
	"github.com/bumil/fallcare-auth/internal/tokens"
)

type identityKey struct{}
type tokenErrorKey struct{}

// Диагностические причины отказа в аутентификации; кладутся в контекст
// запроса, запрос при этом продолжается без личности.
const (
	TokenErrorExpired = "expired_token"
	TokenErrorInvalid = "invalid_token"
)

// WithIdentity кладёт аутентифицированную личность в контекст.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom достаёт личность из контекста.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// TokenErrorFrom возвращает диагностическую причину отказа, если фильтр
// отклонил предъявленный токен.
func TokenErrorFrom(ctx context.Context) (string, bool) {
	reason, ok := ctx.Value(tokenErrorKey{}).(string)
	return reason, ok
}

// Authenticate — фильтр аутентификации: превращает bearer-токен входящего
// запроса в личность в контексте либо пропускает запрос дальше без неё.
//
// Фильтр никогда не завершает запрос сам: на любой исход запрос уходит
// следующему обработчику, а отказ в доступе — ответственность конечного
// хендлера. Состояния:
//   - CORS preflight (OPTIONS) — пропуск без проверки;
//   - путь в whitelist — пропуск без проверки;
//   - личность уже установлена ранее — пропуск;
//   - токена нет — пропуск без личности;
//   - токен не разобрался — в контекст кладётся причина, пропуск без личности;
//   - токен не access — пропуск без личности;
//   - валидный access — личность строится из claims без походов в хранилища.
//
// Любая внутренняя паника деградирует до "без личности".
func Authenticate(tm *tokens.Manager, whitelist []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(evaluate(r, tm, whitelist)))
		})
	}
}

// evaluate выполняет проверку и возвращает итоговый контекст запроса.
// Никогда не паникует наружу.
func evaluate(r *http.Request, tm *tokens.Manager, whitelist []string) (out context.Context) {
	ctx := r.Context()
	out = ctx

	lg := logctx.From(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			lg.Warn("auth_filter_panic", slog.Any("reason", rec))
			out = ctx
		}
	}()

	if r.Method == http.MethodOptions {
		return ctx
	}

	if isWhitelisted(r.URL.Path, whitelist) {
		return ctx
	}

	if _, ok := IdentityFrom(ctx); ok {
		return ctx
	}

	tokenStr := extractBearer(r)
	if tokenStr == "" {
		return ctx
	}

	claims, err := tm.Parse(tokenStr)
	if err != nil {
		reason := TokenErrorInvalid
		if errors.Is(err, tokens.ErrTokenExpired) {
			reason = TokenErrorExpired
		}

		lg.Debug("access_token_rejected",
			slog.String("path", r.URL.Path),
			slog.String("reason", reason),
		)

		return context.WithValue(ctx, tokenErrorKey{}, reason)
	}

	if claims.Kind != tokens.KindAccess {
		lg.Debug("access_token_wrong_kind", slog.String("path", r.URL.Path))
		return ctx
	}

	lg.Debug("access_token_ok",
		slog.String("path", r.URL.Path),
		slog.Int64("user_id", claims.UserID),
	)

	return WithIdentity(ctx, models.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	})
}

// extractBearer достаёт bearer-токен из заголовка Authorization.
func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// isWhitelisted проверяет путь по списку шаблонов.
// Шаблон сравнивается посегментно: "*" закрывает один сегмент,
// завершающий "**" — весь остаток пути.
func isWhitelisted(path string, patterns []string) bool {
	for _, p := range patterns {
		if matchPath(p, path) {
			return true
		}
	}

	return false
}

func matchPath(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	ss := strings.Split(strings.Trim(path, "/"), "/")

	for i, seg := range ps {
		if seg == "**" && i == len(ps)-1 {
			return true
		}

		if i >= len(ss) {
			return false
		}

		if seg != "*" && seg != ss[i] {
			return false
		}
	}

	return len(ps) == len(ss)
}

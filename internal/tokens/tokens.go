// tokens выпускает и разбирает подписанные access/refresh-токены.
//
// Пакет — единственный источник истины о форме токена и его валидности:
//   - access-токен несёт uid, username и email для stateless-передачи личности;
//   - refresh-токен несёт только uid;
//   - kind (claim "token_type") фиксируется при выпуске и проверяется
//     перед любым использованием токена по назначению.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bumil/fallcare-auth/internal/config"
)

var (
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed — токен некорректен по структуре или подписи.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenUnsupported — токен не распознан (неподдерживаемый алгоритм/формат).
	ErrTokenUnsupported = errors.New("token unsupported")
)

// Kind — назначение токена.
type Kind string

const (
	// KindAccess — короткоживущий токен доступа к API.
	KindAccess Kind = "access"
	// KindRefresh — токен для переиздания access-токена.
	KindRefresh Kind = "refresh"
)

// Claims — полезная нагрузка подписанного токена.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Kind     Kind   `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены с общим секретом из конфигурации.
// Секрет читается один раз при создании и далее не меняется; экземпляр
// безопасен для конкурентного использования.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New создаёт Manager из конфигурации аутентификации.
func New(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// RefreshTTL возвращает срок жизни refresh-токена.
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccess выпускает access-токен с uid/username/email.
func (m *Manager) IssueAccess(userID int64, username, email string) (string, error) {
	const op = "tokens.IssueAccess"

	signed, err := m.issue(Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Kind:     KindAccess,
	}, m.accessTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// IssueRefresh выпускает refresh-токен, несущий только uid.
func (m *Manager) IssueRefresh(userID int64) (string, error) {
	const op = "tokens.IssueRefresh"

	signed, err := m.issue(Claims{
		UserID: userID,
		Kind:   KindRefresh,
	}, m.refreshTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (m *Manager) issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprintf("%d", claims.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Parse проверяет подпись и срок действия токена и возвращает его claims.
//
// Ошибки: ErrTokenExpired — истёк; ErrTokenUnsupported — неподдерживаемый
// алгоритм/формат; ErrTokenMalformed — всё остальное (битая структура,
// неверная подпись). Сравнение срока строгое: токен валиден, пока now < exp.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	const op = "tokens.Parse"

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}

			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenUnsupported)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
	}

	return claims, nil
}

// Classify разбирает токен и возвращает его назначение.
// Используется, чтобы отклонить refresh-токен там, где ожидается access,
// и наоборот.
func (m *Manager) Classify(tokenStr string) (Kind, error) {
	const op = "tokens.Classify"

	claims, err := m.Parse(tokenStr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	switch claims.Kind {
	case KindAccess, KindRefresh:
		return claims.Kind, nil
	default:
		return "", fmt.Errorf("%s: %w", op, ErrTokenMalformed)
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bumil/fallcare-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия/код).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности без привязки к конкретному полю.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUsernameExists — уникальность нарушена по username.
	// errors.Is(err, ErrAlreadyExists) для него тоже истинно.
	ErrUsernameExists = fmt.Errorf("username %w", ErrAlreadyExists)
	// ErrEmailExists — уникальность нарушена по email.
	ErrEmailExists = fmt.Errorf("email %w", ErrAlreadyExists)
)

// UserStorage выполняет операции над пользователями.
// Служит внешним справочником пользователей: при переиздании токенов
// актуальные username/email берутся отсюда, а не из claims refresh-токена.
type UserStorage interface {
	// SaveUser создает нового пользователя и возвращает его ID.
	SaveUser(ctx context.Context, user *models.User) (int64, error)
	// UserByUsername находит пользователя по username.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionStorage ведёт учёт активных refresh-сессий по ключу (userID, device).
// На один ключ приходится не более одной живой сессии: Save перезаписывает
// предыдущую запись; независимые устройства одного пользователя не мешают
// друг другу.
type SessionStorage interface {
	// Save безусловно записывает refresh-токен для (userID, device) с TTL.
	Save(ctx context.Context, userID int64, device, token string, ttl time.Duration) error
	// Session возвращает сохранённый refresh-токен или ErrNotFound.
	Session(ctx context.Context, userID int64, device string) (string, error)
	// Delete удаляет сессию; идемпотентна: отсутствие ключа — не ошибка,
	// возвращается deleted=false.
	Delete(ctx context.Context, userID int64, device string) (bool, error)
}

// CodeStorage хранит одноразовые коды подтверждения e-mail.
type CodeStorage interface {
	// SaveCode записывает код для email с TTL, перезаписывая предыдущий.
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	// Code возвращает сохранённый код или ErrNotFound (истёк/не запрашивался).
	Code(ctx context.Context, email string) (string, error)
	// DeleteCode удаляет код после успешной проверки.
	DeleteCode(ctx context.Context, email string) error
}

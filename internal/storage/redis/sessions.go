package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bumil/fallcare-auth/internal/storage"
)

// Проверка на соответствие интерфейсу SessionStorage.
var _ storage.SessionStorage = (*Store)(nil)

// sessionKey собирает ключ вида "RT:<userID>:<device>".
// Фиксированный префикс позволяет находить сессии prefix-сканом при отладке.
func (s *Store) sessionKey(userID int64, device string) string {
	return s.sessionPrefix + strconv.FormatInt(userID, 10) + ":" + device
}

// Save безусловно перезаписывает сессию (userID, device) новым refresh-токеном.
// Конкурентные записи по одному ключу разрешаются по принципу last-write-wins.
func (s *Store) Save(ctx context.Context, userID int64, device, token string, ttl time.Duration) error {
	const op = "storage.redis.Save"

	if err := s.rdb.Set(ctx, s.sessionKey(userID, device), token, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Session возвращает активный refresh-токен для (userID, device).
// Отсутствие ключа (включая истечение TTL) — storage.ErrNotFound.
func (s *Store) Session(ctx context.Context, userID int64, device string) (string, error) {
	const op = "storage.redis.Session"

	val, err := s.rdb.Get(ctx, s.sessionKey(userID, device)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

// Delete удаляет сессию. Удаление отсутствующего ключа — не ошибка.
func (s *Store) Delete(ctx context.Context, userID int64, device string) (bool, error) {
	const op = "storage.redis.Delete"

	n, err := s.rdb.Del(ctx, s.sessionKey(userID, device)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

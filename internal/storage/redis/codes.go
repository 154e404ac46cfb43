package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bumil/fallcare-auth/internal/storage"
)

// Проверка на соответствие интерфейсу CodeStorage.
var _ storage.CodeStorage = (*Store)(nil)

func (s *Store) codeKey(email string) string {
	return s.codePrefix + email
}

// SaveCode записывает код подтверждения для email с TTL.
// Повторный запрос кода перезаписывает предыдущий: действует только
// последний выданный код.
func (s *Store) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	const op = "storage.redis.SaveCode"

	if err := s.rdb.Set(ctx, s.codeKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Code возвращает сохранённый код или storage.ErrNotFound,
// если код истёк либо не запрашивался.
func (s *Store) Code(ctx context.Context, email string) (string, error) {
	const op = "storage.redis.Code"

	val, err := s.rdb.Get(ctx, s.codeKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

// DeleteCode удаляет код после успешной проверки (single-use).
func (s *Store) DeleteCode(ctx context.Context, email string) error {
	const op = "storage.redis.DeleteCode"

	if err := s.rdb.Del(ctx, s.codeKey(email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

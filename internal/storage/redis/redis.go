// redis реализует хранилища refresh-сессий и кодов подтверждения
// поверх общего внешнего Redis, доступного всем экземплярам сервиса.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store — общий клиент Redis для сессий и кодов подтверждения.
type Store struct {
	rdb           *redis.Client
	sessionPrefix string
	codePrefix    string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Пустые префиксы заменяются значениями по умолчанию "RT:" и "EMAIL:".
func New(ctx context.Context, redisURL, sessionPrefix, codePrefix string) (*Store, error) {
	const op = "storage.redis.New"

	if sessionPrefix == "" {
		sessionPrefix = "RT:"
	}
	if codePrefix == "" {
		codePrefix = "EMAIL:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{
		rdb:           rdb,
		sessionPrefix: sessionPrefix,
		codePrefix:    codePrefix,
	}, nil
}

// Close закрывает клиент Redis.
func (s *Store) Close() error {
	return s.rdb.Close()
}

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bumil/fallcare-auth/internal/storage"
)

// Файл интеграционных тестов для Redis-хранилища сессий и кодов подтверждения:
// - поднимает реальный Redis через testcontainers-go (образ redis:7-alpine);
// - проверяет независимость сессий по устройствам, вытеснение last-write-wins,
//   истечение TTL и идемпотентность удаления;
// - для кодов — перезапись, single-use и ErrNotFound.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/redis -v -race -count=1

// startRedis поднимает временный Redis и возвращает готовое хранилище
// с функцией очистки. Без GO_TEST_INTEGRATION тест пропускается.
func startRedis(t *testing.T) (*Store, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "6379/tcp")
	url := fmt.Sprintf("redis://%s:%s/0", host, port.Port())

	st, err := New(ctx, url, "RT:", "EMAIL:")
	require.NoError(t, err)

	cleanup := func() {
		_ = st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

// TestIntegration_Sessions_SaveGetDelete_OK — happy-path жизненного цикла сессии.
func TestIntegration_Sessions_SaveGetDelete_OK(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.Save(ctx, 42, "pixel-7", "refresh-a", time.Minute))

	got, err := st.Session(ctx, 42, "pixel-7")
	require.NoError(t, err)
	require.Equal(t, "refresh-a", got)

	deleted, err := st.Delete(ctx, 42, "pixel-7")
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = st.Session(ctx, 42, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_Sessions_PerDeviceIsolation — сессии одного пользователя
// на разных устройствах живут независимо.
func TestIntegration_Sessions_PerDeviceIsolation(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.Save(ctx, 42, "pixel-7", "token-phone", time.Minute))
	require.NoError(t, st.Save(ctx, 42, "ipad", "token-tablet", time.Minute))

	phone, err := st.Session(ctx, 42, "pixel-7")
	require.NoError(t, err)
	require.Equal(t, "token-phone", phone)

	tablet, err := st.Session(ctx, 42, "ipad")
	require.NoError(t, err)
	require.Equal(t, "token-tablet", tablet)

	// Удаление сессии телефона не трогает планшет.
	_, err = st.Delete(ctx, 42, "pixel-7")
	require.NoError(t, err)

	tablet, err = st.Session(ctx, 42, "ipad")
	require.NoError(t, err)
	require.Equal(t, "token-tablet", tablet)
}

// TestIntegration_Sessions_LastWriteWins — повторный вход на том же устройстве
// вытесняет предыдущий токен.
func TestIntegration_Sessions_LastWriteWins(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.Save(ctx, 42, "pixel-7", "old-token", time.Minute))
	require.NoError(t, st.Save(ctx, 42, "pixel-7", "new-token", time.Minute))

	got, err := st.Session(ctx, 42, "pixel-7")
	require.NoError(t, err)
	require.Equal(t, "new-token", got)
}

// TestIntegration_Sessions_TTLExpiry — истёкшая по TTL сессия отдаёт ErrNotFound.
func TestIntegration_Sessions_TTLExpiry(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.Save(ctx, 42, "pixel-7", "short-lived", 500*time.Millisecond))
	time.Sleep(time.Second)

	_, err := st.Session(ctx, 42, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_Sessions_DeleteAbsent — удаление отсутствующего ключа
// не ошибка, но возвращает false.
func TestIntegration_Sessions_DeleteAbsent(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	deleted, err := st.Delete(context.Background(), 42, "never-logged-in")
	require.NoError(t, err)
	require.False(t, deleted)
}

// TestIntegration_Sessions_PerUserIsolation — одинаковое устройство у разных
// пользователей даёт разные ключи.
func TestIntegration_Sessions_PerUserIsolation(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.Save(ctx, 1, "pixel-7", "token-1", time.Minute))
	require.NoError(t, st.Save(ctx, 2, "pixel-7", "token-2", time.Minute))

	got, err := st.Session(ctx, 1, "pixel-7")
	require.NoError(t, err)
	require.Equal(t, "token-1", got)
}

// TestIntegration_Codes_Lifecycle — запись, чтение, перезапись и удаление кода.
func TestIntegration_Codes_Lifecycle(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, st.SaveCode(ctx, "alice@example.com", "111111", time.Minute))

	got, err := st.Code(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "111111", got)

	// Повторный запрос кода перезаписывает предыдущий.
	require.NoError(t, st.SaveCode(ctx, "alice@example.com", "222222", time.Minute))

	got, err = st.Code(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "222222", got)

	require.NoError(t, st.DeleteCode(ctx, "alice@example.com"))

	_, err = st.Code(ctx, "alice@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_Codes_Absent — код, который не запрашивался, даёт ErrNotFound.
func TestIntegration_Codes_Absent(t *testing.T) {
	st, cleanup := startRedis(t)
	defer cleanup()

	_, err := st.Code(context.Background(), "ghost@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_New_BadURL — битый URL отклоняется без подключения.
func TestIntegration_New_BadURL(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	_, err := New(context.Background(), "not-a-url", "", "")
	require.Error(t, err)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/bumil/fallcare-auth/internal/config"
	"github.com/bumil/fallcare-auth/internal/models"
	"github.com/bumil/fallcare-auth/internal/storage"
	"github.com/bumil/fallcare-auth/internal/tokens"
	"github.com/bumil/fallcare-auth/mocks"
)

type serviceMocks struct {
	users    *mocks.MockUserStorage
	sessions *mocks.MockSessionStorage
	codes    *mocks.MockCodeStorage
	mailer   *mocks.MockSender
}

func defaultAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "service-test-secret",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
	}
}

// newTestService собирает Service на моках хранилищ и почты.
func newTestService(t *testing.T, cfg config.AuthConfig) (*Service, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := serviceMocks{
		users:    mocks.NewMockUserStorage(ctrl),
		sessions: mocks.NewMockSessionStorage(ctrl),
		codes:    mocks.NewMockCodeStorage(ctrl),
		mailer:   mocks.NewMockSender(ctrl),
	}

	svc := New(m.users, m.sessions, m.codes, tokens.New(cfg), m.mailer, cfg)
	return svc, m
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()

	hash, err := hashPassword(password)
	require.NoError(t, err)

	return &models.User{
		ID:           42,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	cfg := defaultAuthConfig()
	svc, m := newTestService(t, cfg)
	user := testUser(t, "s3cret")

	var savedToken string
	m.users.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)
	m.sessions.EXPECT().Delete(gomock.Any(), int64(42), "pixel-7").Return(false, nil)
	m.sessions.EXPECT().
		Save(gomock.Any(), int64(42), "pixel-7", gomock.Any(), cfg.RefreshTokenTTL).
		DoAndReturn(func(_ context.Context, _ int64, _ string, token string, _ time.Duration) error {
			savedToken = token
			return nil
		})

	res, err := svc.Login(context.Background(), "alice", "s3cret", "pixel-7")
	require.NoError(t, err)
	require.Equal(t, int64(42), res.UserID)
	require.Equal(t, "alice", res.Username)
	require.Equal(t, savedToken, res.Tokens.RefreshToken)

	// Access-токен несёт данные пользователя.
	claims, err := svc.Tokens().Parse(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, tokens.KindAccess, claims.Kind)

	// Refresh-токен — именно refresh.
	kind, err := svc.Tokens().Classify(res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, tokens.KindRefresh, kind)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	user := testUser(t, "s3cret")

	m.users.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)

	_, err := svc.Login(context.Background(), "alice", "wrong", "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())

	m.users.EXPECT().UserByUsername(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	_, err := svc.Login(context.Background(), "ghost", "whatever", "pixel-7")
	require.Error(t, err)
	// Неизвестный пользователь неотличим от неверного пароля.
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_EmptyInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, defaultAuthConfig())

	_, err := svc.Login(context.Background(), "", "pass", "d")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "alice", "", "d")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_StorageError(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	boom := errors.New("pg down")

	m.users.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, boom)

	_, err := svc.Login(context.Background(), "alice", "s3cret", "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SessionSaveError(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	user := testUser(t, "s3cret")
	boom := errors.New("redis down")

	m.users.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)
	m.sessions.EXPECT().Delete(gomock.Any(), int64(42), "pixel-7").Return(false, nil)
	m.sessions.EXPECT().
		Save(gomock.Any(), int64(42), "pixel-7", gomock.Any(), gomock.Any()).
		Return(boom)

	_, err := svc.Login(context.Background(), "alice", "s3cret", "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestLogin_DisplacesPreviousSession(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	user := testUser(t, "s3cret")

	gomock.InOrder(
		m.users.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil),
		// Старая сессия устройства удаляется перед записью новой.
		m.sessions.EXPECT().Delete(gomock.Any(), int64(42), "pixel-7").Return(true, nil),
		m.sessions.EXPECT().
			Save(gomock.Any(), int64(42), "pixel-7", gomock.Any(), gomock.Any()).
			Return(nil),
	)

	_, err := svc.Login(context.Background(), "alice", "s3cret", "pixel-7")
	require.NoError(t, err)
}

func TestLogout_DeletesSession(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())

	m.sessions.EXPECT().Delete(gomock.Any(), int64(42), "pixel-7").Return(true, nil)

	svc.Logout(context.Background(), 42, "pixel-7")
}

func TestLogout_SwallowsStorageError(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())

	m.sessions.EXPECT().Delete(gomock.Any(), int64(42), "pixel-7").Return(false, errors.New("redis down"))

	// Сбой хранилища не паникует и не всплывает: сессию добьёт TTL.
	svc.Logout(context.Background(), 42, "pixel-7")
}

func issueRefresh(t *testing.T, svc *Service, userID int64) string {
	t.Helper()

	token, err := svc.Tokens().IssueRefresh(userID)
	require.NoError(t, err)
	return token
}

func TestReissue_OK(t *testing.T) {
	t.Parallel()

	cfg := defaultAuthConfig()
	svc, m := newTestService(t, cfg)
	user := testUser(t, "s3cret")
	refresh := issueRefresh(t, svc, 42)

	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return(refresh, nil)
	m.users.EXPECT().UserByID(gomock.Any(), int64(42)).Return(user, nil)
	// Сессия переписывается с обновлённым TTL.
	m.sessions.EXPECT().
		Save(gomock.Any(), int64(42), "pixel-7", refresh, cfg.RefreshTokenTTL).
		Return(nil)

	pair, err := svc.Reissue(context.Background(), refresh, "pixel-7")
	require.NoError(t, err)
	// Без ротации refresh-токен остаётся прежним.
	require.Equal(t, refresh, pair.RefreshToken)

	claims, err := svc.Tokens().Parse(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, tokens.KindAccess, claims.Kind)
}

func TestReissue_UsesFreshUserRecord(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	refresh := issueRefresh(t, svc, 42)

	// Пользователь успел сменить username и email.
	renamed := &models.User{ID: 42, Username: "alice-renamed", Email: "new@example.com"}

	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return(refresh, nil)
	m.users.EXPECT().UserByID(gomock.Any(), int64(42)).Return(renamed, nil)
	m.sessions.EXPECT().Save(gomock.Any(), int64(42), "pixel-7", refresh, gomock.Any()).Return(nil)

	pair, err := svc.Reissue(context.Background(), refresh, "pixel-7")
	require.NoError(t, err)

	claims, err := svc.Tokens().Parse(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice-renamed", claims.Username)
	require.Equal(t, "new@example.com", claims.Email)
}

func TestReissue_Rotation(t *testing.T) {
	t.Parallel()

	cfg := defaultAuthConfig()
	cfg.RotateRefresh = true
	svc, m := newTestService(t, cfg)
	user := testUser(t, "s3cret")
	refresh := issueRefresh(t, svc, 42)

	var savedToken string
	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return(refresh, nil)
	m.users.EXPECT().UserByID(gomock.Any(), int64(42)).Return(user, nil)
	m.sessions.EXPECT().
		Save(gomock.Any(), int64(42), "pixel-7", gomock.Any(), cfg.RefreshTokenTTL).
		DoAndReturn(func(_ context.Context, _ int64, _ string, token string, _ time.Duration) error {
			savedToken = token
			return nil
		})

	pair, err := svc.Reissue(context.Background(), refresh, "pixel-7")
	require.NoError(t, err)
	require.NotEqual(t, refresh, pair.RefreshToken)
	require.Equal(t, savedToken, pair.RefreshToken)

	kind, err := svc.Tokens().Classify(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, tokens.KindRefresh, kind)
}

func TestReissue_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, defaultAuthConfig())

	_, err := svc.Reissue(context.Background(), "", "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestReissue_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, defaultAuthConfig())

	access, err := svc.Tokens().IssueAccess(42, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Reissue(context.Background(), access, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestReissue_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, defaultAuthConfig())

	_, err := svc.Reissue(context.Background(), "not-a-jwt", "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestReissue_SessionAbsent(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	refresh := issueRefresh(t, svc, 42)

	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return("", storage.ErrNotFound)

	// Logout или истёкший TTL: сессии нет — токен считается просроченным.
	_, err := svc.Reissue(context.Background(), refresh, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestReissue_TokenMismatch(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	oldRefresh := issueRefresh(t, svc, 42)
	newRefresh := issueRefresh(t, svc, 42)
	require.NotEqual(t, oldRefresh, newRefresh)

	// Повторный вход на том же устройстве вытеснил старый токен.
	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return(newRefresh, nil)

	_, err := svc.Reissue(context.Background(), oldRefresh, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenMismatch)
}

func TestReissue_StorageError(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t, defaultAuthConfig())
	refresh := issueRefresh(t, svc, 42)
	boom := errors.New("redis down")

	m.sessions.EXPECT().Session(gomock.Any(), int64(42), "pixel-7").Return("", boom)

	_, err := svc.Reissue(context.Background(), refresh, "pixel-7")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrRefreshTokenExpired)
}

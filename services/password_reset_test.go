package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
}

func newTestPasswordReset(t *testing.T) (*PasswordResetService, *UserService, *recordingPublisher, *recordingSleeper) {
	t.Helper()
	orm := setupTestDB(t)
	users := NewUserService(orm)
	publisher := &recordingPublisher{}
	memory, _ := newTestMemoryLimiter()
	service := NewPasswordResetService(orm, users, NewActionLimiter(memory, nil), publisher,
		400*time.Millisecond, 100*time.Millisecond, time.Hour)
	sleeper := &recordingSleeper{}
	service.sleep = sleeper.sleep
	return service, users, publisher, sleeper
}

func TestPasswordResetSameResponse(t *testing.T) {
	service, users, publisher, sleeper := newTestPasswordReset(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := users.Register(ctx, gofakeit.Username(), email, "initial-password")
	require.NoError(t, err)

	existing, err := service.Request(ctx, email)
	require.NoError(t, err)
	missing, err := service.Request(ctx, "nobody@example.com")
	require.NoError(t, err)

	assert.Equal(t, PasswordResetMessage, existing)
	assert.Equal(t, existing, missing)

	// Письмо уходит только для существующего адреса
	mails := publisher.byType(EventPasswordReset)
	require.Len(t, mails, 1)
	assert.Equal(t, MAIL_PASSWORD_RESET_KEY, mails[0].routingKey)

	// Оба ответа выровнены по времени
	require.Len(t, sleeper.sleeps, 2)
	for _, d := range sleeper.sleeps {
		assert.Greater(t, d, 300*time.Millisecond)
		assert.Less(t, d, 500*time.Millisecond)
	}
}

func TestPasswordResetRateLimitedPerEmail(t *testing.T) {
	service, _, _, _ := newTestPasswordReset(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Request(ctx, "victim@example.com")
		require.NoError(t, err)
	}
	_, err := service.Request(ctx, "victim@example.com")
	assert.Equal(t, CodeRateLimited, CodeOf(err))

	_, err = service.Request(ctx, "other@example.com")
	assert.NoError(t, err)
}

func TestPasswordResetConfirm(t *testing.T) {
	service, users, publisher, _ := newTestPasswordReset(t)
	ctx := context.Background()

	email := gofakeit.Email()
	nickname := gofakeit.Username()
	_, err := users.Register(ctx, nickname, email, "initial-password")
	require.NoError(t, err)
	session, _, err := users.Login(ctx, nickname, "initial-password")
	require.NoError(t, err)

	_, err = service.Request(ctx, email)
	require.NoError(t, err)
	mails := publisher.byType(EventPasswordReset)
	require.Len(t, mails, 1)
	token := mails[0].event.Payload["token"]
	require.NotEmpty(t, token)

	assert.Equal(t, CodeInvalidInput, CodeOf(service.Confirm(ctx, "wrong-token", "new-password-1")))
	assert.Equal(t, CodeInvalidInput, CodeOf(service.Confirm(ctx, token, "short")))

	require.NoError(t, service.Confirm(ctx, token, "new-password-1"))

	// Сессии сброшены, токен одноразовый
	_, err = users.UserIDByToken(ctx, session)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
	assert.Equal(t, CodeInvalidInput, CodeOf(service.Confirm(ctx, token, "new-password-2")))

	_, _, err = users.Login(ctx, nickname, "initial-password")
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
	_, _, err = users.Login(ctx, nickname, "new-password-1")
	assert.NoError(t, err)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	service, users, publisher, _ := newTestPasswordReset(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := users.Register(ctx, gofakeit.Username(), email, "initial-password")
	require.NoError(t, err)

	_, err = service.Request(ctx, email)
	require.NoError(t, err)
	token := publisher.byType(EventPasswordReset)[0].event.Payload["token"]

	service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, CodeInvalidInput, CodeOf(service.Confirm(ctx, token, "new-password-1")))
}

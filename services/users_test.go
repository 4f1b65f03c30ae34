package services

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	users := NewUserService(setupTestDB(t))
	ctx := context.Background()

	nickname := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 12)
	user, err := users.Register(ctx, nickname, gofakeit.Email(), password)
	require.NoError(t, err)
	assert.NotEqual(t, password, user.Password)

	_, err = users.Register(ctx, nickname, gofakeit.Email(), password)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	_, err = users.Register(ctx, "short", gofakeit.Email(), "1234")
	assert.Equal(t, CodeInvalidInput, CodeOf(err))

	_, _, err = users.Login(ctx, nickname, "wrong password")
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
	_, _, err = users.Login(ctx, "nobody", password)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	token, logged, err := users.Login(ctx, nickname, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	userID, err := users.UserIDByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// Новый вход отзывает старый токен
	newToken, _, err := users.Login(ctx, nickname, password)
	require.NoError(t, err)
	_, err = users.UserIDByToken(ctx, token)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	require.NoError(t, users.Logout(ctx, newToken))
	_, err = users.UserIDByToken(ctx, newToken)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestPasswordHash(t *testing.T) {
	hash, err := hashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, verifyPassword(hash, "correct horse"))
	assert.False(t, verifyPassword(hash, "wrong horse"))
	assert.False(t, verifyPassword("garbage", "correct horse"))
}

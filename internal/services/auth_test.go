package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"comicnest/internal/apperr"
	"comicnest/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	gdb := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewAuthService(gdb, "test-secret", time.Hour)

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.Avatar)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	logged, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.Equal(t, "Incorrect password", apperr.Message(err))
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, "Email is not registered", apperr.Message(err))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", time.Hour)

	token, expiresAt, err := svc.IssueToken(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestParseTokenRejects(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", time.Hour)
	other := NewAuthService(nil, "another-secret", time.Hour)

	foreign, _, err := other.IssueToken(1)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(token)
			require.Error(t, err)
			assert.Equal(t, 401, apperr.Status(err))
		})
	}
}

func TestCurrentUserMissing(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewAuthService(gdb, "test-secret", time.Hour)

	_, err := svc.CurrentUser(context.Background(), 123)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

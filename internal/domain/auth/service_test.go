package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/core/apperror"
)

func newTestAuthService() *Service {
	return NewService(
		NewMemoryUserRepository(),
		NewJWTService(DefaultJWTConfig("test-secret")),
		DefaultServiceConfig(),
	)
}

func TestRegister(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Name:     "Alice",
		Email:    "  ALICE@Example.COM  ",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
	assert.Equal(t, RoleUser, user.Role)
	assert.NotEqual(t, "long-enough-password", user.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "A", Email: "not-an-email", Password: "long-enough-password"})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"})
	require.Error(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	req := RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "long-enough-password"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "long-enough-password"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "long-enough-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "alice@example.com", result.User.Email)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "long-enough-password"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	require.Error(t, wrongPassword)

	_, unknownEmail := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "long-enough-password"})
	require.Error(t, unknownEmail)

	// Same message either way so accounts cannot be enumerated.
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

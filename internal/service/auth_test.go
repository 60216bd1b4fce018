package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	svc := &AuthService{Repo: r, JWTSecret: []byte("secret")}

	u, err := svc.Register(ctx, transport.RegisterRequest{Name: "Ann", Email: " Ann@Example.com ", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsApproved)

	_, err = svc.Register(ctx, transport.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrConflict)

	seller, err := svc.Register(ctx, transport.RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "pw", Role: models.RoleSeller})
	require.NoError(t, err)
	assert.False(t, seller.IsApproved)

	_, err = svc.Register(ctx, transport.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "pw", Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, transport.RegisterRequest{Name: "Bad", Email: "not-an-email", Password: "pw"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "nope"})
	require.ErrorIs(t, err, ErrUnauthorized)

	out, err := svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "pw123456"})
	require.NoError(t, err)
	claims, err := tokens.AccessClaimsFromToken(out.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, tokens.PurposeAccess, claims.Purpose)

	require.NoError(t, r.UpdateUser(ctx, u.ID, map[string]any{"is_active": false}))
	_, err = svc.Login(ctx, transport.LoginRequest{Email: "ann@example.com", Password: "pw123456"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuth_Onboarding(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	svc := &AuthService{Repo: r, JWTSecret: []byte("secret")}

	u, err := svc.Register(ctx, transport.RegisterRequest{Name: "Owner", Email: "owner@example.com", Password: "temp-pass"})
	require.NoError(t, err)
	require.NoError(t, r.UpdateUser(ctx, u.ID, map[string]any{"is_first_login": true, "role": models.RoleAdmin}))

	out, err := svc.Login(ctx, transport.LoginRequest{Email: "owner@example.com", Password: "temp-pass"})
	require.NoError(t, err)
	require.True(t, out.RequiresOnboarding)
	claims, err := tokens.AccessClaimsFromToken(out.TempToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, tokens.PurposeOnboarding, claims.Purpose)

	_, err = svc.CompleteOnboarding(ctx, u.ID, transport.OnboardingRequest{NewPassword: "abc"})
	require.ErrorIs(t, err, ErrValidation)

	name := "Store Owner"
	done, err := svc.CompleteOnboarding(ctx, u.ID, transport.OnboardingRequest{NewPassword: "new-password", Name: &name})
	require.NoError(t, err)
	assert.NotEmpty(t, done.AccessToken)
	assert.Equal(t, "Store Owner", done.User.Name)
	assert.False(t, done.User.IsFirstLogin)

	_, err = svc.CompleteOnboarding(ctx, u.ID, transport.OnboardingRequest{NewPassword: "another-one"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "owner@example.com", Password: "new-password"})
	require.NoError(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/config"
	"foodway/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{
	AccessSecret:  "access-secret-for-tests",
	RefreshSecret: "refresh-secret-for-tests",
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    7 * 24 * time.Hour,
	ResetTTL:      time.Hour,
}

func newAuthService(env *testEnv) AuthService {
	return NewAuthService(env.users, env.tokens, env.tx, NewTokenService(testJWT), NewActivityService(env.activities, testLog), testLog)
}

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService(testJWT)
	rid := uint(3)
	user := &model.User{Base: model.Base{ID: 9}, Email: "staff@example.com", Role: model.RoleRestaurantUser, RestaurantID: &rid}

	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	require.NotNil(t, claims.RestaurantID)
	assert.Equal(t, rid, *claims.RestaurantID)

	// the secrets are not interchangeable
	_, err = tokens.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := tokens.IssuePair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, other.RefreshToken)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService(testJWT)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := tokens.IssuePair(&model.User{Base: model.Base{ID: 1}, Role: model.RoleSuperAdmin})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))

	reset, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, reset, 64)
}

func TestAuthService_Login(t *testing.T) {
	env := newEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	env.user(t, "staff@example.com", "segredo123", model.RoleRestaurantUser, &r.ID)

	resp, err := svc.Login(ctx, LoginRequest{Email: "STAFF@example.com", Password: "segredo123"}, ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", resp.User.Email)
	assert.NotNil(t, resp.User.LastLogin)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	actor, err := svc.Authenticate(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleRestaurantUser, actor.Role)
	assert.Equal(t, &r.ID, actor.RestaurantID)

	var logins int64
	require.NoError(t, env.db.Model(&model.ActivityLog{}).Where("action = ?", ActionLogin).Count(&logins).Error)
	assert.Equal(t, int64(1), logins)

	_, err = svc.Login(ctx, LoginRequest{Email: "staff@example.com", Password: "errada"}, ClientInfo{})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUnauthorized, appErr.Kind)
	assert.Equal(t, "Email ou senha inválidos", appErr.Message)

	_, err = svc.Login(ctx, LoginRequest{Email: "ninguem@example.com", Password: "segredo123"}, ClientInfo{})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestAuthService_InactiveUser(t *testing.T) {
	env := newEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	u := env.user(t, "old@example.com", "segredo123", model.RoleSuperAdmin, nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: "old@example.com", Password: "segredo123"}, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	_, err = svc.Login(ctx, LoginRequest{Email: "old@example.com", Password: "segredo123"}, ClientInfo{})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Usuário inativo", appErr.Message)

	_, err = svc.Authenticate(ctx, resp.Tokens.AccessToken)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestAuthService_RefreshRotates(t *testing.T) {
	env := newEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	env.user(t, "admin@example.com", "segredo123", model.RoleSuperAdmin, nil)

	login, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "segredo123"}, ClientInfo{})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.Tokens.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	// a rotated token is spent
	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken, ClientInfo{})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Refresh token inválido ou expirado", appErr.Message)

	svc.Logout(ctx, refreshed.Tokens.RefreshToken)
	_, err = svc.Refresh(ctx, refreshed.Tokens.RefreshToken, ClientInfo{})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Refresh(ctx, "", ClientInfo{})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestAuthService_PasswordReset(t *testing.T) {
	env := newEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	env.user(t, "admin@example.com", "segredo123", model.RoleSuperAdmin, nil)

	login, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "segredo123"}, ClientInfo{})
	require.NoError(t, err)

	none, err := svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "ninguem@example.com"}, ClientInfo{})
	require.NoError(t, err)
	assert.Empty(t, none)

	token, err := svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "admin@example.com"}, ClientInfo{})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "novasenha"}))

	// reset revokes every outstanding token, including the reset token itself
	err = svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "outrasenha"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken, ClientInfo{})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "novasenha"}, ClientInfo{})
	require.NoError(t, err)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	u := env.user(t, "admin@example.com", "segredo123", model.RoleSuperAdmin, nil)
	actor := Actor{UserID: u.ID, Role: u.Role}

	err := svc.ChangePassword(ctx, actor, ChangePasswordRequest{CurrentPassword: "errada", NewPassword: "novasenha"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Senha atual incorreta", appErr.Message)

	require.NoError(t, svc.ChangePassword(ctx, actor, ChangePasswordRequest{CurrentPassword: "segredo123", NewPassword: "novasenha"}))
	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "novasenha"}, ClientInfo{})
	require.NoError(t, err)
}

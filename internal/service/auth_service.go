package service

import (
	"context"
	"errors"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Email ou senha inválidos"
	msgInactiveUser       = "Usuário inativo"
	msgInvalidRefresh     = "Refresh token inválido ou expirado"
	msgInvalidReset       = "Token de redefinição inválido ou expirado"
	msgWrongPassword      = "Senha atual incorreta"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=128"`
}

// ClientInfo identifies the device a token is issued to.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type AuthResponse struct {
	User   *UserResponse `json:"user"`
	Tokens *TokenPair    `json:"tokens"`
}

// AuthService covers login, token rotation and password recovery.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string)
	LogoutAll(ctx context.Context, userID uint) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest, client ClientInfo) (string, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error
	// Authenticate resolves an access token to the active user behind it.
	Authenticate(ctx context.Context, accessToken string) (*Actor, error)
	Me(ctx context.Context, userID uint) (*UserResponse, error)
}

type authService struct {
	users    repository.UserRepository
	tokens   repository.AuthTokenRepository
	tx       repository.TransactionManager
	jwt      *TokenService
	activity ActivityService
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.AuthTokenRepository,
	tx repository.TransactionManager,
	jwt *TokenService,
	activity ActivityService,
	log logrus.FieldLogger,
) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		tx:       tx,
		jwt:      jwt,
		activity: activity,
		log:      log,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, apperror.FromDB(err, "")
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized(msgInactiveUser)
	}

	pair, err := s.issue(ctx, user, client)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{"last_login": now}); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}
	user.LastLogin = &now

	s.activity.Record(ctx, ActivityEntry{
		UserID:       &user.ID,
		RestaurantID: user.RestaurantID,
		Action:       ActionLogin,
		EntityType:   "user",
		EntityID:     &user.ID,
		IP:           client.IP,
		UserAgent:    client.UserAgent,
	})

	return &AuthResponse{User: toUserResponse(user), Tokens: pair}, nil
}

// issue signs a token pair and persists the hashed refresh token.
func (s *authService) issue(ctx context.Context, user *model.User, client ClientInfo) (*TokenPair, error) {
	pair, err := s.jwt.IssuePair(user)
	if err != nil {
		return nil, err
	}

	row := &model.AuthToken{
		UserID:    user.ID,
		TokenHash: HashToken(pair.RefreshToken),
		TokenType: model.TokenTypeRefresh,
		ExpiresAt: pair.RefreshExpiresAt,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized(msgInvalidRefresh)
	}
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized(msgInvalidRefresh)
	}

	var resp *AuthResponse
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.tokens.FindValid(txCtx, HashToken(refreshToken), model.TokenTypeRefresh, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized(msgInvalidRefresh)
			}
			return apperror.FromDB(err, "")
		}
		if row.UserID != claims.UserID {
			return apperror.Unauthorized(msgInvalidRefresh)
		}

		user, err := s.users.GetByID(txCtx, row.UserID)
		if err != nil {
			return apperror.Unauthorized(msgInvalidRefresh)
		}
		if !user.IsActive {
			return apperror.Unauthorized(msgInactiveUser)
		}

		// rotation: the presented token cannot be used again
		revoked, err := s.tokens.RevokeByHash(txCtx, row.TokenHash)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		if revoked == 0 {
			return apperror.Unauthorized(msgInvalidRefresh)
		}

		pair, err := s.issue(txCtx, user, client)
		if err != nil {
			return err
		}
		resp = &AuthResponse{User: toUserResponse(user), Tokens: pair}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if _, err := s.tokens.RevokeByHash(ctx, HashToken(refreshToken)); err != nil {
		s.log.WithError(err).Warn("failed to revoke token during logout")
	}
}

func (s *authService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

// ForgotPassword returns the raw reset token, or "" when the email is unknown or inactive.
func (s *authService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest, client ClientInfo) (string, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", apperror.FromDB(err, "")
	}
	if !user.IsActive {
		return "", nil
	}

	token, err := NewResetToken()
	if err != nil {
		return "", err
	}
	row := &model.AuthToken{
		UserID:    user.ID,
		TokenHash: HashToken(token),
		TokenType: model.TokenTypeResetPassword,
		ExpiresAt: s.now().Add(s.jwt.ResetTTL()),
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return "", apperror.FromDB(err, "")
	}
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	var userID uint
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.tokens.FindValid(txCtx, HashToken(req.Token), model.TokenTypeResetPassword, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized(msgInvalidReset)
			}
			return apperror.FromDB(err, "")
		}
		userID = row.UserID
		return s.setPassword(txCtx, row.UserID, req.NewPassword)
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:     &userID,
		Action:     ActionPasswordReset,
		EntityType: "user",
		EntityID:   &userID,
	})
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return apperror.FromDB(err, msgUserNotFound)
	}
	if !CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperror.Unauthorized(msgWrongPassword)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.setPassword(txCtx, user.ID, req.NewPassword)
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:       &user.ID,
		RestaurantID: user.RestaurantID,
		Action:       ActionPasswordChange,
		EntityType:   "user",
		EntityID:     &user.ID,
		IP:           actor.IP,
		UserAgent:    actor.UserAgent,
	})
	return nil
}

// setPassword stores the new hash and revokes every token of the user.
func (s *authService) setPassword(ctx context.Context, userID uint, password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{"password_hash": hashed}); err != nil {
		return apperror.FromDB(err, "")
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Actor, error) {
	claims, err := s.jwt.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgUserNotFound)
		}
		return nil, apperror.FromDB(err, "")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized(msgInactiveUser)
	}

	return &Actor{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	}, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.FromDB(err, msgUserNotFound)
	}
	return toUserResponse(user), nil
}

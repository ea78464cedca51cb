package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"foodway/internal/config"
	"foodway/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID       uint   `json:"userId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RestaurantID *uint  `json:"restaurantId"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. The jti makes every issued token unique.
type RefreshClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`

	RefreshExpiresAt time.Time `json:"-"`
}

// TokenService signs and verifies the JWTs used by the API.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
	now           func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		resetTTL:      cfg.ResetTTL,
		now:           time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }
func (s *TokenService) ResetTTL() time.Duration   { return s.resetTTL }

// IssuePair signs a new access/refresh pair for user.
func (s *TokenService) IssuePair(user *model.User) (*TokenPair, error) {
	now := s.now()
	subject := strconv.FormatUint(uint64(user.ID), 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshExpires := now.Add(s.refreshTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.accessTTL.Seconds()),
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (s *TokenService) ParseAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and returns its claims.
func (s *TokenService) ParseRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashToken returns the hex SHA-256 digest stored in auth_tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewResetToken returns 32 random bytes, hex encoded.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

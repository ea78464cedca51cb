package repository

import (
	"context"
	"time"

	"foodway/internal/model"

	"gorm.io/gorm"
)

type AuthTokenRepository interface {
	Create(ctx context.Context, token *model.AuthToken) error
	FindValid(ctx context.Context, hash, tokenType string, now time.Time) (*model.AuthToken, error)
	RevokeByHash(ctx context.Context, hash string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type authTokenRepository struct {
	db *gorm.DB
}

func NewAuthTokenRepository(db *gorm.DB) AuthTokenRepository {
	return &authTokenRepository{db: db}
}

func (r *authTokenRepository) Create(ctx context.Context, token *model.AuthToken) error {
	return GetDB(ctx, r.db).Omit("User").Create(token).Error
}

// FindValid returns the unrevoked, unexpired token row with the given hash and type.
func (r *authTokenRepository) FindValid(ctx context.Context, hash, tokenType string, now time.Time) (*model.AuthToken, error) {
	var token model.AuthToken
	err := GetDB(ctx, r.db).
		Where("token_hash = ? AND token_type = ? AND is_revoked = ? AND expires_at > ?", hash, tokenType, false, now).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *authTokenRepository) RevokeByHash(ctx context.Context, hash string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.AuthToken{}).
		Where("token_hash = ? AND is_revoked = ?", hash, false).
		Update("is_revoked", true)
	return res.RowsAffected, res.Error
}

func (r *authTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) error {
	return GetDB(ctx, r.db).Model(&model.AuthToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}

func (r *authTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Where("expires_at < ?", before).Delete(&model.AuthToken{})
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"

	"foodway/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Log(ctx context.Context, entry *model.ActivityLog) error
	ListByUser(ctx context.Context, userID uint, page Page) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *model.ActivityLog) error {
	if entry.Details == "" {
		entry.Details = "{}"
	}
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *activityRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ActivityLog{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := applyPage(db.Order("created_at desc").Order("id desc"), page).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

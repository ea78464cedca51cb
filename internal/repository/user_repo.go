package repository

import (
	"context"
	"strings"

	"foodway/internal/model"

	"gorm.io/gorm"
)

type UserFilter struct {
	Role         string
	RestaurantID *uint
	IsActive     *bool
	Search       string
}

// UserStats counts accounts by state and role.
type UserStats struct {
	ActiveCounts
	SuperAdmins     int64 `json:"super_admins"`
	RestaurantUsers int64 `json:"restaurant_users"`
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page Page, sort Sort) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	CountActiveSuperAdmins(ctx context.Context) (int64, error)
	Stats(ctx context.Context, restaurantID *uint) (UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return GetDB(ctx, r.db).Omit("Restaurant").Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Restaurant").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches case-insensitively; emails are stored lowercase.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).Preload("Restaurant").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page Page, sort Sort) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.RestaurantID != nil {
		db = db.Where("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	db = searchAny(db, filter.Search, "name", "email")

	// Count total records
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, "users", sort, Sort{Field: "created_at", Desc: true})
	if err := applyPage(db, page).Preload("Restaurant").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return GetDB(ctx, r.db).Omit("Restaurant").Save(user).Error
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepository) CountActiveSuperAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("role = ? AND is_active = ?", model.RoleSuperAdmin, true).
		Count(&count).Error
	return count, err
}

func (r *userRepository) Stats(ctx context.Context, restaurantID *uint) (UserStats, error) {
	db := GetDB(ctx, r.db)
	if restaurantID != nil {
		db = db.Where("restaurant_id = ?", *restaurantID)
	}
	db = db.Session(&gorm.Session{})

	counts, err := countActive(db, &model.User{}, "is_active")
	if err != nil {
		return UserStats{}, err
	}
	stats := UserStats{ActiveCounts: counts}
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleSuperAdmin).Count(&stats.SuperAdmins).Error; err != nil {
		return UserStats{}, err
	}
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleRestaurantUser).Count(&stats.RestaurantUsers).Error; err != nil {
		return UserStats{}, err
	}
	return stats, nil
}

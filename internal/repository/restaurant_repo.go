package repository

import (
	"context"

	"foodway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RestaurantFilter struct {
	IsActive *bool
	City     string
	Search   string
}

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	Update(ctx context.Context, restaurant *model.Restaurant) error
	FindByID(ctx context.Context, id uint) (*model.Restaurant, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error)
	List(ctx context.Context, filter RestaurantFilter, page Page, sort Sort) ([]model.Restaurant, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (ActiveCounts, error)
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	return GetDB(ctx, r.db).Create(restaurant).Error
}

func (r *restaurantRepository) Update(ctx context.Context, restaurant *model.Restaurant) error {
	return GetDB(ctx, r.db).Save(restaurant).Error
}

func (r *restaurantRepository) FindByID(ctx context.Context, id uint) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := GetDB(ctx, r.db).First(&restaurant, id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := GetDB(ctx, r.db).Where("uuid = ?", id).First(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) List(ctx context.Context, filter RestaurantFilter, page Page, sort Sort) ([]model.Restaurant, int64, error) {
	var restaurants []model.Restaurant
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Restaurant{})
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.City != "" {
		db = db.Where("LOWER(city) LIKE ? ESCAPE '\\'", likePattern(filter.City))
	}
	db = searchAny(db, filter.Search, "name", "description")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, "restaurants", sort, Sort{Field: "created_at", Desc: true})
	if err := applyPage(db, page).Find(&restaurants).Error; err != nil {
		return nil, 0, err
	}
	return restaurants, total, nil
}

func (r *restaurantRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Restaurant{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *restaurantRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Restaurant{}, id).Error
}

func (r *restaurantRepository) Stats(ctx context.Context) (ActiveCounts, error) {
	return countActive(GetDB(ctx, r.db), &model.Restaurant{}, "is_active")
}

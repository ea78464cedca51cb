package repository

import (
	"context"
	"database/sql"

	"foodway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryFilter struct {
	RestaurantID *uint
	IsActive     *bool
	Search       string
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, filter CategoryFilter, page Page, sort Sort) ([]model.Category, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	MaxSortOrder(ctx context.Context, restaurantID uint) (int, error)
	UpdateSortOrder(ctx context.Context, restaurantID, id uint, sortOrder int) (int64, error)
	CountProducts(ctx context.Context, categoryIDs []uint) (map[uint]int64, error)
	Stats(ctx context.Context, restaurantID *uint) (ActiveCounts, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Omit("Restaurant", "Products").Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Omit("Restaurant", "Products").Save(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Preload("Restaurant").First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Preload("Restaurant").Where("uuid = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter, page Page, sort Sort) ([]model.Category, int64, error) {
	var categories []model.Category
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Category{})
	if filter.RestaurantID != nil {
		db = db.Where("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	db = searchAny(db, filter.Search, "name", "description")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, "categories", sort, Sort{Field: "sort_order"})
	if err := applyPage(db, page).Preload("Restaurant").Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

func (r *categoryRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Category{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Category{}, id).Error
}

func (r *categoryRepository) MaxSortOrder(ctx context.Context, restaurantID uint) (int, error) {
	var maxOrder sql.NullInt64
	err := GetDB(ctx, r.db).Model(&model.Category{}).
		Where("restaurant_id = ?", restaurantID).
		Select("MAX(sort_order)").Row().Scan(&maxOrder)
	if err != nil {
		return 0, err
	}
	return int(maxOrder.Int64), nil
}

func (r *categoryRepository) UpdateSortOrder(ctx context.Context, restaurantID, id uint, sortOrder int) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Category{}).
		Where("id = ? AND restaurant_id = ?", id, restaurantID).
		Update("sort_order", sortOrder)
	return res.RowsAffected, res.Error
}

func (r *categoryRepository) CountProducts(ctx context.Context, categoryIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", categoryIDs).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

func (r *categoryRepository) Stats(ctx context.Context, restaurantID *uint) (ActiveCounts, error) {
	db := GetDB(ctx, r.db)
	if restaurantID != nil {
		db = db.Where("restaurant_id = ?", *restaurantID)
	}
	return countActive(db, &model.Category{}, "is_active")
}

package repository

import (
	"context"
	"database/sql"

	"foodway/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductFilter struct {
	CategoryID    *uint
	RestaurantID  *uint
	IsAvailable   *bool
	IsOnPromotion *bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Search        string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter, page Page, sort Sort) ([]model.Product, int64, error)
	ListByCategories(ctx context.Context, categoryIDs []uint, availableOnly bool) ([]model.Product, error)
	SetAvailable(ctx context.Context, id uint, available bool) error
	Delete(ctx context.Context, id uint) error
	MaxSortOrder(ctx context.Context, categoryID uint) (int, error)
	UpdateSortOrder(ctx context.Context, categoryID, id uint, sortOrder int) (int64, error)
	ListForStats(ctx context.Context, categoryID, restaurantID *uint) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit("Category").Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit("Category").Save(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").Where("uuid = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, page Page, sort Sort) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.RestaurantID != nil {
		db = db.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.CategoryID != nil {
		db = db.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.IsAvailable != nil {
		db = db.Where("products.is_available = ?", *filter.IsAvailable)
	}
	if filter.IsOnPromotion != nil {
		db = db.Where("products.is_on_promotion = ?", *filter.IsOnPromotion)
	}
	if filter.MinPrice != nil {
		db = db.Where("products.current_price >= ?", filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		db = db.Where("products.current_price <= ?", filter.MaxPrice.InexactFloat64())
	}
	db = searchAny(db, filter.Search, "products.name", "products.description")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, "products", sort, Sort{Field: "sort_order"})
	if err := applyPage(db, page).Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) ListByCategories(ctx context.Context, categoryIDs []uint, availableOnly bool) ([]model.Product, error) {
	var products []model.Product
	if len(categoryIDs) == 0 {
		return products, nil
	}

	db := GetDB(ctx, r.db).Where("category_id IN ?", categoryIDs)
	if availableOnly {
		db = db.Where("is_available = ?", true)
	}
	if err := db.Order("sort_order ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) SetAvailable(ctx context.Context, id uint, available bool) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("is_available", available).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Product{}, id).Error
}

func (r *productRepository) MaxSortOrder(ctx context.Context, categoryID uint) (int, error) {
	var maxOrder sql.NullInt64
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("category_id = ?", categoryID).
		Select("MAX(sort_order)").Row().Scan(&maxOrder)
	if err != nil {
		return 0, err
	}
	return int(maxOrder.Int64), nil
}

func (r *productRepository) UpdateSortOrder(ctx context.Context, categoryID, id uint, sortOrder int) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ? AND category_id = ?", id, categoryID).
		Update("sort_order", sortOrder)
	return res.RowsAffected, res.Error
}

// ListForStats loads the columns needed to aggregate product statistics.
func (r *productRepository) ListForStats(ctx context.Context, categoryID, restaurantID *uint) ([]model.Product, error) {
	var products []model.Product
	db := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("products.id", "products.is_available", "products.is_on_promotion", "products.current_price")
	if categoryID != nil {
		db = db.Where("products.category_id = ?", *categoryID)
	}
	if restaurantID != nil {
		db = db.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.restaurant_id = ?", *restaurantID)
	}
	if err := db.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"foodway/internal/model"

	"gorm.io/gorm"
)

type TableFilter struct {
	RestaurantID *uint
	IsActive     *bool
	MinCapacity  *int
	Search       string
}

// TableStats extends the active counts with QR and seat totals.
type TableStats struct {
	ActiveCounts
	WithQRCode    int64 `json:"with_qr_code"`
	TotalCapacity int64 `json:"total_capacity"`
}

type TableRepository interface {
	Create(ctx context.Context, table *model.Table) error
	CreateBatch(ctx context.Context, tables []model.Table) error
	Update(ctx context.Context, table *model.Table) error
	FindByID(ctx context.Context, id uint) (*model.Table, error)
	FindByRestaurantAndNumber(ctx context.Context, restaurantID uint, number int) (*model.Table, error)
	ExistingNumbers(ctx context.Context, restaurantID uint, numbers []int) ([]int, error)
	List(ctx context.Context, filter TableFilter, page Page, sort Sort) ([]model.Table, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	MarkQRGenerated(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context, restaurantID *uint) (TableStats, error)
}

type tableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Create(ctx context.Context, table *model.Table) error {
	return GetDB(ctx, r.db).Omit("Restaurant").Create(table).Error
}

func (r *tableRepository) CreateBatch(ctx context.Context, tables []model.Table) error {
	if len(tables) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Omit("Restaurant").Create(&tables).Error
}

func (r *tableRepository) Update(ctx context.Context, table *model.Table) error {
	return GetDB(ctx, r.db).Omit("Restaurant").Save(table).Error
}

func (r *tableRepository) FindByID(ctx context.Context, id uint) (*model.Table, error) {
	var table model.Table
	if err := GetDB(ctx, r.db).Preload("Restaurant").First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) FindByRestaurantAndNumber(ctx context.Context, restaurantID uint, number int) (*model.Table, error) {
	var table model.Table
	err := GetDB(ctx, r.db).Preload("Restaurant").
		Where("restaurant_id = ? AND table_number = ?", restaurantID, number).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) ExistingNumbers(ctx context.Context, restaurantID uint, numbers []int) ([]int, error) {
	var existing []int
	if len(numbers) == 0 {
		return existing, nil
	}
	err := GetDB(ctx, r.db).Model(&model.Table{}).
		Where("restaurant_id = ? AND table_number IN ?", restaurantID, numbers).
		Pluck("table_number", &existing).Error
	return existing, err
}

func (r *tableRepository) List(ctx context.Context, filter TableFilter, page Page, sort Sort) ([]model.Table, int64, error) {
	var tables []model.Table
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Table{})
	if filter.RestaurantID != nil {
		db = db.Where("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.MinCapacity != nil {
		db = db.Where("capacity >= ?", *filter.MinCapacity)
	}
	db = searchAny(db, filter.Search, "name", "location")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, "tables", sort, Sort{Field: "table_number"})
	if err := applyPage(db, page).Preload("Restaurant").Find(&tables).Error; err != nil {
		return nil, 0, err
	}
	return tables, total, nil
}

func (r *tableRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Table{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *tableRepository) MarkQRGenerated(ctx context.Context, id uint, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Table{}).Where("id = ?", id).Updates(map[string]any{
		"qr_code_generated":    true,
		"last_qr_generated_at": at,
	}).Error
}

func (r *tableRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Table{}, id).Error
}

func (r *tableRepository) Stats(ctx context.Context, restaurantID *uint) (TableStats, error) {
	db := GetDB(ctx, r.db)
	if restaurantID != nil {
		db = db.Where("restaurant_id = ?", *restaurantID)
	}
	db = db.Session(&gorm.Session{})

	counts, err := countActive(db, &model.Table{}, "is_active")
	if err != nil {
		return TableStats{}, err
	}
	stats := TableStats{ActiveCounts: counts}

	if err := db.Model(&model.Table{}).Where("qr_code_generated = ?", true).Count(&stats.WithQRCode).Error; err != nil {
		return TableStats{}, err
	}

	var capacity sql.NullInt64
	if err := db.Model(&model.Table{}).Where("is_active = ?", true).Select("SUM(capacity)").Row().Scan(&capacity); err != nil {
		return TableStats{}, err
	}
	stats.TotalCapacity = capacity.Int64
	return stats, nil
}

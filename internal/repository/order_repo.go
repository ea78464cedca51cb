package repository

import (
	"context"
	"time"

	"foodway/internal/model"

	"gorm.io/gorm"
)

type OrderFilter struct {
	RestaurantID *uint
	TableID      *uint
	Statuses     []string
	From         *time.Time
	To           *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter, page Page, sort Sort) ([]model.Order, int64, error)
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
	TransitionStatus(ctx context.Context, id uint, from string, fields map[string]any) (int64, error)
	ListForStats(ctx context.Context, restaurantID *uint, since time.Time) ([]model.Order, error)
	TopProducts(ctx context.Context, restaurantID *uint, since time.Time, limit int) ([]model.ProductRanking, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items in one statement batch.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Restaurant", "Table", "Items.Product").Create(order).Error
}

func (r *orderRepository) preloaded(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).
		Preload("Restaurant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "uuid", "name") }).
		Preload("Table", func(db *gorm.DB) *gorm.DB { return db.Select("id", "uuid", "table_number", "name") }).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "uuid", "name", "image_url") })
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloaded(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, page Page, sort Sort) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.RestaurantID != nil {
		db = db.Where("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.TableID != nil {
		db = db.Where("table_id = ?", *filter.TableID)
	}
	if len(filter.Statuses) == 1 {
		db = db.Where("status = ?", filter.Statuses[0])
	} else if len(filter.Statuses) > 1 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		db = db.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("created_at <= ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ids := []uint{}
	idQuery := applySort(db, "orders", sort, Sort{Field: "created_at", Desc: true})
	if err := applyPage(idQuery, page).Pluck("orders.id", &ids).Error; err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []model.Order{}, total, nil
	}

	// reload with associations, keeping the sorted id order
	var loaded []model.Order
	if err := r.preloaded(ctx).Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]model.Order, len(loaded))
	for _, o := range loaded {
		byID[o.ID] = o
	}
	orders = make([]model.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			orders = append(orders, o)
		}
	}
	return orders, total, nil
}

// LastOrderNumber returns the highest order number starting with prefix, or "".
// Longer suffixes sort first so "-1000" outranks "-999".
func (r *orderRepository) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("LENGTH(order_number) DESC, order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

// TransitionStatus applies fields only while the order is still in status from.
// Zero rows affected means a concurrent transition won.
func (r *orderRepository) TransitionStatus(ctx context.Context, id uint, from string, fields map[string]any) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *orderRepository) ListForStats(ctx context.Context, restaurantID *uint, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	db := GetDB(ctx, r.db).Model(&model.Order{}).Select("id", "status", "total_amount").
		Where("created_at >= ?", since)
	if restaurantID != nil {
		db = db.Where("restaurant_id = ?", *restaurantID)
	}
	if err := db.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TopProducts ranks the products of delivered orders by quantity sold.
func (r *orderRepository) TopProducts(ctx context.Context, restaurantID *uint, since time.Time, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	db := GetDB(ctx, r.db).Table("order_items").
		Select("products.id AS product_id, products.name AS product_name, SUM(order_items.quantity) AS total_quantity, SUM(order_items.total_price) AS total_value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.created_at >= ?", model.OrderStatusDelivered, since)
	if restaurantID != nil {
		db = db.Where("orders.restaurant_id = ?", *restaurantID)
	}
	if err := db.Group("products.id, products.name").
		Order("total_quantity DESC, products.id ASC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, err
	}
	return rankings, nil
}

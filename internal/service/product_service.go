package service

import (
	"context"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgProductNotFound = "Produto não encontrado"
	msgPromotionPrice  = "Preço promocional deve ser menor que o preço regular"
)

type CreateProductRequest struct {
	CategoryID    uint     `json:"category_id" binding:"required,min=1"`
	Name          string   `json:"name" binding:"required,min=2,max=255"`
	Description   string   `json:"description" binding:"omitempty,max=2000"`
	RegularPrice  float64  `json:"regular_price" binding:"required,gt=0"`
	CurrentPrice  *float64 `json:"current_price" binding:"omitempty,gt=0"`
	IsOnPromotion bool     `json:"is_on_promotion"`
	ImageURL      string   `json:"image_url" binding:"omitempty,url,max=500"`
	IsAvailable   *bool    `json:"is_available"`
	SortOrder     *int     `json:"sort_order" binding:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	CategoryID    *uint    `json:"category_id" binding:"omitempty,min=1"`
	Name          *string  `json:"name" binding:"omitempty,min=2,max=255"`
	Description   *string  `json:"description" binding:"omitempty,max=2000"`
	RegularPrice  *float64 `json:"regular_price" binding:"omitempty,gt=0"`
	CurrentPrice  *float64 `json:"current_price" binding:"omitempty,gt=0"`
	IsOnPromotion *bool    `json:"is_on_promotion"`
	ImageURL      *string  `json:"image_url" binding:"omitempty,url,max=500"`
	IsAvailable   *bool    `json:"is_available"`
	SortOrder     *int     `json:"sort_order" binding:"omitempty,min=0"`
}

type PromotionRequest struct {
	PromotionPrice *float64 `json:"promotion_price" binding:"omitempty,gt=0"`
}

type MoveProductRequest struct {
	CategoryID uint `json:"category_id" binding:"required,min=1"`
}

type DuplicateProductRequest struct {
	Name         *string  `json:"name" binding:"omitempty,min=2,max=255"`
	Description  *string  `json:"description" binding:"omitempty,max=2000"`
	RegularPrice *float64 `json:"regular_price" binding:"omitempty,gt=0"`
	CategoryID   *uint    `json:"category_id" binding:"omitempty,min=1"`
}

type ReorderProductsRequest struct {
	Products []SortItem `json:"products" binding:"required,min=1,dive"`
}

var productSortFields = []string{"name", "current_price", "regular_price", "sort_order", "created_at", "updated_at"}

type ProductListQuery struct {
	ListQuery
	CategoryID    *uint    `form:"category_id" binding:"omitempty,min=1"`
	RestaurantID  *uint    `form:"restaurant_id" binding:"omitempty,min=1"`
	IsAvailable   *bool    `form:"is_available"`
	IsOnPromotion *bool    `form:"is_on_promotion"`
	MinPrice      *float64 `form:"min_price" binding:"omitempty,gt=0"`
	MaxPrice      *float64 `form:"max_price" binding:"omitempty,gt=0"`
	Search        string   `form:"search" binding:"omitempty,max=255"`
}

type ProductResponse struct {
	ID            uint             `json:"id"`
	UUID          uuid.UUID        `json:"uuid"`
	CategoryID    uint             `json:"category_id"`
	Category      *CategorySummary `json:"category,omitempty"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	RegularPrice  float64          `json:"regular_price"`
	CurrentPrice  float64          `json:"current_price"`
	IsOnPromotion bool             `json:"is_on_promotion"`
	ImageURL      string           `json:"image_url"`
	IsAvailable   bool             `json:"is_available"`
	SortOrder     int              `json:"sort_order"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type ProductStats struct {
	Total        int     `json:"total"`
	Available    int     `json:"available"`
	Unavailable  int     `json:"unavailable"`
	OnPromotion  int     `json:"on_promotion"`
	AveragePrice float64 `json:"average_price"`
	CategoryID   *uint   `json:"category_id"`
	RestaurantID *uint   `json:"restaurant_id"`
}

func toProductResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID,
		UUID:          p.UUID,
		CategoryID:    p.CategoryID,
		Category:      toCategorySummary(p.Category),
		Name:          p.Name,
		Description:   p.Description,
		RegularPrice:  p.RegularPrice.InexactFloat64(),
		CurrentPrice:  p.CurrentPrice.InexactFloat64(),
		IsOnPromotion: p.IsOnPromotion,
		ImageURL:      p.ImageURL,
		IsAvailable:   p.IsAvailable,
		SortOrder:     p.SortOrder,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func price(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// PromotionError reports a product on promotion whose current price is not below the regular price.
func PromotionError(onPromotion bool, regular, current decimal.Decimal) *apperror.FieldError {
	if onPromotion && current.GreaterThanOrEqual(regular) {
		return &apperror.FieldError{Field: "current_price", Message: msgPromotionPrice, Type: "custom.promotionPrice"}
	}
	return nil
}

type ProductService interface {
	List(ctx context.Context, q ProductListQuery) (*ListResult[ProductResponse], error)
	Promotions(ctx context.Context, restaurantID *uint, q ListQuery) (*ListResult[ProductResponse], error)
	GetByID(ctx context.Context, id uint) (*ProductResponse, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	Create(ctx context.Context, actor Actor, req CreateProductRequest) (*ProductResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateProductRequest) (*ProductResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (*ProductResponse, error)
	Reactivate(ctx context.Context, actor Actor, id uint) (*ProductResponse, error)
	HardDelete(ctx context.Context, id uint) error
	SetPromotion(ctx context.Context, actor Actor, id uint, req PromotionRequest) (*ProductResponse, error)
	Duplicate(ctx context.Context, actor Actor, id uint, req DuplicateProductRequest) (*ProductResponse, error)
	Move(ctx context.Context, actor Actor, id uint, req MoveProductRequest) (*ProductResponse, error)
	Reorder(ctx context.Context, actor Actor, categoryID uint, req ReorderProductsRequest) ([]ProductResponse, error)
	Stats(ctx context.Context, categoryID, restaurantID *uint) (*ProductStats, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	tx         repository.TransactionManager
}

func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	tx repository.TransactionManager,
) ProductService {
	return &productService{repo: repo, categories: categories, tx: tx}
}

func (s *productService) List(ctx context.Context, q ProductListQuery) (*ListResult[ProductResponse], error) {
	filter := repository.ProductFilter{
		CategoryID:    q.CategoryID,
		RestaurantID:  q.RestaurantID,
		IsAvailable:   q.IsAvailable,
		IsOnPromotion: q.IsOnPromotion,
		Search:        q.Search,
	}
	if q.MinPrice != nil {
		p := price(*q.MinPrice)
		filter.MinPrice = &p
	}
	if q.MaxPrice != nil {
		p := price(*q.MaxPrice)
		filter.MaxPrice = &p
	}
	return s.list(ctx, filter, q.ListQuery)
}

func (s *productService) Promotions(ctx context.Context, restaurantID *uint, q ListQuery) (*ListResult[ProductResponse], error) {
	filter := repository.ProductFilter{
		RestaurantID:  restaurantID,
		IsAvailable:   boolPtr(true),
		IsOnPromotion: boolPtr(true),
	}
	if q.SortBy == "" {
		q.SortBy, q.SortOrder = "created_at", "desc"
	}
	return s.list(ctx, filter, q)
}

func (s *productService) list(ctx context.Context, filter repository.ProductFilter, q ListQuery) (*ListResult[ProductResponse], error) {
	params := q.params(10)
	products, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(productSortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *toProductResponse(&products[i]))
	}
	return &ListResult[ProductResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *productService) GetByID(ctx context.Context, id uint) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgProductNotFound)
	}
	return toProductResponse(product), nil
}

func (s *productService) GetByUUID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgProductNotFound)
	}
	return toProductResponse(product), nil
}

// category fetches a category the actor may write products into.
func (s *productService) category(ctx context.Context, actor Actor, id uint) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgCategoryNotFound)
	}
	if !actor.CanAccessRestaurant(category.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	return category, nil
}

// load fetches a product the actor may modify.
func (s *productService) load(ctx context.Context, actor Actor, id uint) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgProductNotFound)
	}
	if product.Category != nil && !actor.CanAccessRestaurant(product.Category.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, actor Actor, req CreateProductRequest) (*ProductResponse, error) {
	if _, err := s.category(ctx, actor, req.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		CategoryID:    req.CategoryID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		RegularPrice:  price(req.RegularPrice),
		CurrentPrice:  price(req.RegularPrice),
		IsOnPromotion: req.IsOnPromotion,
		ImageURL:      req.ImageURL,
		IsAvailable:   true,
	}
	if req.CurrentPrice != nil {
		product.CurrentPrice = price(*req.CurrentPrice)
	}
	if fe := PromotionError(product.IsOnPromotion, product.RegularPrice, product.CurrentPrice); fe != nil {
		return nil, apperror.Validation("", *fe)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if req.SortOrder != nil {
			product.SortOrder = *req.SortOrder
		} else {
			maxOrder, err := s.repo.MaxSortOrder(txCtx, req.CategoryID)
			if err != nil {
				return apperror.FromDB(err, "")
			}
			product.SortOrder = maxOrder + 1
		}

		if err := s.repo.Create(txCtx, product); err != nil {
			return apperror.FromDB(err, "")
		}
		if req.IsAvailable != nil && !*req.IsAvailable {
			return apperror.FromDB(s.repo.SetAvailable(txCtx, product.ID, false), "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, product.ID)
}

func (s *productService) Update(ctx context.Context, actor Actor, id uint, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if _, err := s.category(ctx, actor, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.RegularPrice != nil {
		product.RegularPrice = price(*req.RegularPrice)
	}
	if req.CurrentPrice != nil {
		product.CurrentPrice = price(*req.CurrentPrice)
	}
	if req.IsOnPromotion != nil {
		product.IsOnPromotion = *req.IsOnPromotion
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}
	if req.SortOrder != nil {
		product.SortOrder = *req.SortOrder
	}

	// the invariant holds on the merged state, not only on the patch
	if fe := PromotionError(product.IsOnPromotion, product.RegularPrice, product.CurrentPrice); fe != nil {
		return nil, apperror.Validation("", *fe)
	}

	product.Category = nil
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *productService) Deactivate(ctx context.Context, actor Actor, id uint) (*ProductResponse, error) {
	return s.setAvailable(ctx, actor, id, false)
}

func (s *productService) Reactivate(ctx context.Context, actor Actor, id uint) (*ProductResponse, error) {
	return s.setAvailable(ctx, actor, id, true)
}

func (s *productService) setAvailable(ctx context.Context, actor Actor, id uint, available bool) (*ProductResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetAvailable(ctx, id, available); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *productService) HardDelete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgProductNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

// SetPromotion starts a promotion at the given price, or ends it when the price is nil.
func (s *productService) SetPromotion(ctx context.Context, actor Actor, id uint, req PromotionRequest) (*ProductResponse, error) {
	product, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.PromotionPrice == nil {
		product.IsOnPromotion = false
		product.CurrentPrice = product.RegularPrice
	} else {
		product.IsOnPromotion = true
		product.CurrentPrice = price(*req.PromotionPrice)
		if fe := PromotionError(true, product.RegularPrice, product.CurrentPrice); fe != nil {
			fe.Field = "promotion_price"
			return nil, apperror.Validation("", *fe)
		}
	}

	product.Category = nil
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *productService) Duplicate(ctx context.Context, actor Actor, id uint, req DuplicateProductRequest) (*ProductResponse, error) {
	original, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	current := original.CurrentPrice.InexactFloat64()
	create := CreateProductRequest{
		CategoryID:    original.CategoryID,
		Name:          original.Name + copySuffix,
		Description:   original.Description,
		RegularPrice:  original.RegularPrice.InexactFloat64(),
		CurrentPrice:  &current,
		IsOnPromotion: original.IsOnPromotion,
		ImageURL:      original.ImageURL,
		IsAvailable:   boolPtr(original.IsAvailable),
	}
	if req.Name != nil {
		create.Name = *req.Name
	}
	if req.Description != nil {
		create.Description = *req.Description
	}
	if req.RegularPrice != nil {
		create.RegularPrice = *req.RegularPrice
		if !original.IsOnPromotion {
			create.CurrentPrice = req.RegularPrice
		}
	}
	if req.CategoryID != nil {
		create.CategoryID = *req.CategoryID
	}
	return s.Create(ctx, actor, create)
}

func (s *productService) Move(ctx context.Context, actor Actor, id uint, req MoveProductRequest) (*ProductResponse, error) {
	product, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	target, err := s.category(ctx, actor, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if product.Category != nil && target.RestaurantID != product.Category.RestaurantID {
		return nil, apperror.Validation("Categoria de destino deve pertencer ao mesmo restaurante", apperror.FieldError{
			Field:   "category_id",
			Message: "Categoria de destino deve pertencer ao mesmo restaurante",
			Type:    "custom.sameRestaurant",
		})
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		maxOrder, err := s.repo.MaxSortOrder(txCtx, target.ID)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		product.CategoryID = target.ID
		product.SortOrder = maxOrder + 1
		product.Category = nil
		return apperror.FromDB(s.repo.Update(txCtx, product), "")
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *productService) Reorder(ctx context.Context, actor Actor, categoryID uint, req ReorderProductsRequest) ([]ProductResponse, error) {
	if _, err := s.category(ctx, actor, categoryID); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, item := range req.Products {
			n, err := s.repo.UpdateSortOrder(txCtx, categoryID, item.ID, item.SortOrder)
			if err != nil {
				return apperror.FromDB(err, "")
			}
			if n == 0 {
				return apperror.NotFound(msgProductNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ListByCategories(ctx, []uint{categoryID}, false)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *toProductResponse(&products[i]))
	}
	return items, nil
}

func (s *productService) Stats(ctx context.Context, categoryID, restaurantID *uint) (*ProductStats, error) {
	products, err := s.repo.ListForStats(ctx, categoryID, restaurantID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	stats := &ProductStats{Total: len(products), CategoryID: categoryID, RestaurantID: restaurantID}
	sum := decimal.Zero
	for _, p := range products {
		if p.IsAvailable {
			stats.Available++
			if p.IsOnPromotion {
				stats.OnPromotion++
			}
		} else {
			stats.Unavailable++
		}
		sum = sum.Add(p.CurrentPrice)
	}
	if len(products) > 0 {
		stats.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(products)))).Round(2).InexactFloat64()
	}
	return stats, nil
}

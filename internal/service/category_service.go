package service

import (
	"context"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
)

const (
	msgCategoryNotFound = "Categoria não encontrada"
	msgRestaurantDenied = "Acesso negado a este restaurante"
	copySuffix          = " (Cópia)"
)

type CreateCategoryRequest struct {
	RestaurantID uint   `json:"restaurant_id" binding:"required,min=1"`
	Name         string `json:"name" binding:"required,min=2,max=255"`
	Description  string `json:"description" binding:"omitempty,max=2000"`
	ImageURL     string `json:"image_url" binding:"omitempty,url,max=500"`
	SortOrder    *int   `json:"sort_order" binding:"omitempty,min=0"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateCategoryRequest struct {
	RestaurantID *uint   `json:"restaurant_id" binding:"omitempty,min=1"`
	Name         *string `json:"name" binding:"omitempty,min=2,max=255"`
	Description  *string `json:"description" binding:"omitempty,max=2000"`
	ImageURL     *string `json:"image_url" binding:"omitempty,url,max=500"`
	SortOrder    *int    `json:"sort_order" binding:"omitempty,min=0"`
	IsActive     *bool   `json:"is_active"`
}

type DuplicateCategoryRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=255"`
	Description  *string `json:"description" binding:"omitempty,max=2000"`
	ImageURL     *string `json:"image_url" binding:"omitempty,url,max=500"`
	RestaurantID *uint   `json:"restaurant_id" binding:"omitempty,min=1"`
}

// SortItem assigns sort_order to one row of a reorder request.
type SortItem struct {
	ID        uint `json:"id" binding:"required,min=1"`
	SortOrder int  `json:"sort_order" binding:"min=0"`
}

type ReorderCategoriesRequest struct {
	Categories []SortItem `json:"categories" binding:"required,min=1,dive"`
}

var categorySortFields = []string{"name", "sort_order", "created_at", "updated_at"}

type CategoryListQuery struct {
	ListQuery
	RestaurantID         *uint  `form:"restaurant_id" binding:"omitempty,min=1"`
	IsActive             *bool  `form:"is_active"`
	Search               string `form:"search" binding:"omitempty,max=255"`
	IncludeProductsCount bool   `form:"include_products_count"`
}

type CategoryResponse struct {
	ID            uint               `json:"id"`
	UUID          uuid.UUID          `json:"uuid"`
	RestaurantID  uint               `json:"restaurant_id"`
	Restaurant    *RestaurantSummary `json:"restaurant,omitempty"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	ImageURL      string             `json:"image_url"`
	SortOrder     int                `json:"sort_order"`
	IsActive      bool               `json:"is_active"`
	ProductsCount *int64             `json:"products_count,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toCategoryResponse(c *model.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:           c.ID,
		UUID:         c.UUID,
		RestaurantID: c.RestaurantID,
		Restaurant:   toRestaurantSummary(c.Restaurant),
		Name:         c.Name,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		SortOrder:    c.SortOrder,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type CategoryService interface {
	List(ctx context.Context, q CategoryListQuery) (*ListResult[CategoryResponse], error)
	GetByID(ctx context.Context, id uint) (*CategoryResponse, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error)
	Create(ctx context.Context, actor Actor, req CreateCategoryRequest) (*CategoryResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateCategoryRequest) (*CategoryResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (*CategoryResponse, error)
	Reactivate(ctx context.Context, actor Actor, id uint) (*CategoryResponse, error)
	HardDelete(ctx context.Context, id uint) error
	Duplicate(ctx context.Context, actor Actor, id uint, req DuplicateCategoryRequest) (*CategoryResponse, error)
	Reorder(ctx context.Context, actor Actor, restaurantID uint, req ReorderCategoriesRequest) ([]CategoryResponse, error)
	Stats(ctx context.Context, restaurantID *uint) (*repository.ActiveCounts, error)
}

type categoryService struct {
	repo        repository.CategoryRepository
	restaurants repository.RestaurantRepository
	tx          repository.TransactionManager
}

func NewCategoryService(
	repo repository.CategoryRepository,
	restaurants repository.RestaurantRepository,
	tx repository.TransactionManager,
) CategoryService {
	return &categoryService{repo: repo, restaurants: restaurants, tx: tx}
}

func (s *categoryService) List(ctx context.Context, q CategoryListQuery) (*ListResult[CategoryResponse], error) {
	params := q.params(10)
	filter := repository.CategoryFilter{RestaurantID: q.RestaurantID, IsActive: q.IsActive, Search: q.Search}

	categories, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(categorySortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, *toCategoryResponse(&categories[i]))
	}

	if q.IncludeProductsCount && len(items) > 0 {
		ids := make([]uint, 0, len(items))
		for _, c := range items {
			ids = append(ids, c.ID)
		}
		counts, err := s.repo.CountProducts(ctx, ids)
		if err != nil {
			return nil, apperror.FromDB(err, "")
		}
		for i := range items {
			n := counts[items[i].ID]
			items[i].ProductsCount = &n
		}
	}
	return &ListResult[CategoryResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uint) (*CategoryResponse, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgCategoryNotFound)
	}
	return toCategoryResponse(category), nil
}

func (s *categoryService) GetByUUID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgCategoryNotFound)
	}
	return toCategoryResponse(category), nil
}

func (s *categoryService) Create(ctx context.Context, actor Actor, req CreateCategoryRequest) (*CategoryResponse, error) {
	if !actor.CanAccessRestaurant(req.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}

	category := &model.Category{
		RestaurantID: req.RestaurantID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		IsActive:     true,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.restaurants.FindByID(txCtx, req.RestaurantID); err != nil {
			return apperror.FromDB(err, msgRestaurantNotFound)
		}

		if req.SortOrder != nil {
			category.SortOrder = *req.SortOrder
		} else {
			maxOrder, err := s.repo.MaxSortOrder(txCtx, req.RestaurantID)
			if err != nil {
				return apperror.FromDB(err, "")
			}
			category.SortOrder = maxOrder + 1
		}

		if err := s.repo.Create(txCtx, category); err != nil {
			return apperror.FromDB(err, "")
		}
		if req.IsActive != nil && !*req.IsActive {
			return apperror.FromDB(s.repo.SetActive(txCtx, category.ID, false), "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, category.ID)
}

// load fetches a category the actor is allowed to modify.
func (s *categoryService) load(ctx context.Context, actor Actor, id uint) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgCategoryNotFound)
	}
	if !actor.CanAccessRestaurant(category.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, actor Actor, id uint, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.RestaurantID != nil && *req.RestaurantID != category.RestaurantID {
		if !actor.CanAccessRestaurant(*req.RestaurantID) {
			return nil, apperror.Unauthorized(msgRestaurantDenied)
		}
		if _, err := s.restaurants.FindByID(ctx, *req.RestaurantID); err != nil {
			return nil, apperror.FromDB(err, msgRestaurantNotFound)
		}
		category.RestaurantID = *req.RestaurantID
	}
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.ImageURL != nil {
		category.ImageURL = *req.ImageURL
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	category.Restaurant = nil
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *categoryService) Deactivate(ctx context.Context, actor Actor, id uint) (*CategoryResponse, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *categoryService) Reactivate(ctx context.Context, actor Actor, id uint) (*CategoryResponse, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *categoryService) setActive(ctx context.Context, actor Actor, id uint, active bool) (*CategoryResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *categoryService) HardDelete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgCategoryNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

func (s *categoryService) Duplicate(ctx context.Context, actor Actor, id uint, req DuplicateCategoryRequest) (*CategoryResponse, error) {
	original, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	create := CreateCategoryRequest{
		RestaurantID: original.RestaurantID,
		Name:         original.Name + copySuffix,
		Description:  original.Description,
		ImageURL:     original.ImageURL,
		IsActive:     boolPtr(original.IsActive),
	}
	if req.Name != nil {
		create.Name = *req.Name
	}
	if req.Description != nil {
		create.Description = *req.Description
	}
	if req.ImageURL != nil {
		create.ImageURL = *req.ImageURL
	}
	if req.RestaurantID != nil {
		create.RestaurantID = *req.RestaurantID
	}
	return s.Create(ctx, actor, create)
}

func (s *categoryService) Reorder(ctx context.Context, actor Actor, restaurantID uint, req ReorderCategoriesRequest) ([]CategoryResponse, error) {
	if !actor.CanAccessRestaurant(restaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, item := range req.Categories {
			n, err := s.repo.UpdateSortOrder(txCtx, restaurantID, item.ID, item.SortOrder)
			if err != nil {
				return apperror.FromDB(err, "")
			}
			if n == 0 {
				return apperror.NotFound(msgCategoryNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	categories, _, err := s.repo.List(ctx, repository.CategoryFilter{RestaurantID: &restaurantID}, repository.Page{}, repository.Sort{})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	items := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, *toCategoryResponse(&categories[i]))
	}
	return items, nil
}

func (s *categoryService) Stats(ctx context.Context, restaurantID *uint) (*repository.ActiveCounts, error) {
	stats, err := s.repo.Stats(ctx, restaurantID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return &stats, nil
}

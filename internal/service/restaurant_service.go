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

type CreateRestaurantRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Logo        string `json:"logo" binding:"omitempty,max=500"`
	Address     string `json:"address" binding:"omitempty,max=1000"`
	City        string `json:"city" binding:"omitempty,max=100"`
	Phone       string `json:"phone" binding:"omitempty,max=20,phone"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateRestaurantRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=255"`
	Logo        *string `json:"logo" binding:"omitempty,max=500"`
	Address     *string `json:"address" binding:"omitempty,max=1000"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=20,phone"`
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

var restaurantSortFields = []string{"name", "city", "created_at", "updated_at"}

type RestaurantListQuery struct {
	ListQuery
	IsActive *bool  `form:"is_active"`
	City     string `form:"city" binding:"omitempty,max=100"`
	Search   string `form:"search" binding:"omitempty,max=255"`
}

type RestaurantResponse struct {
	ID          uint      `json:"id"`
	UUID        uuid.UUID `json:"uuid"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toRestaurantResponse(r *model.Restaurant) *RestaurantResponse {
	return &RestaurantResponse{
		ID:          r.ID,
		UUID:        r.UUID,
		Name:        r.Name,
		Logo:        r.Logo,
		Address:     r.Address,
		City:        r.City,
		Phone:       r.Phone,
		Email:       r.Email,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type RestaurantService interface {
	List(ctx context.Context, q RestaurantListQuery) (*ListResult[RestaurantResponse], error)
	GetByID(ctx context.Context, id uint) (*RestaurantResponse, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*RestaurantResponse, error)
	Create(ctx context.Context, req CreateRestaurantRequest) (*RestaurantResponse, error)
	Update(ctx context.Context, id uint, req UpdateRestaurantRequest) (*RestaurantResponse, error)
	Deactivate(ctx context.Context, id uint) (*RestaurantResponse, error)
	Reactivate(ctx context.Context, id uint) (*RestaurantResponse, error)
	HardDelete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*repository.ActiveCounts, error)
}

type restaurantService struct {
	repo repository.RestaurantRepository
}

func NewRestaurantService(repo repository.RestaurantRepository) RestaurantService {
	return &restaurantService{repo: repo}
}

func (s *restaurantService) List(ctx context.Context, q RestaurantListQuery) (*ListResult[RestaurantResponse], error) {
	params := q.params(10)
	filter := repository.RestaurantFilter{IsActive: q.IsActive, City: q.City, Search: q.Search}

	restaurants, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(restaurantSortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]RestaurantResponse, 0, len(restaurants))
	for i := range restaurants {
		items = append(items, *toRestaurantResponse(&restaurants[i]))
	}
	return &ListResult[RestaurantResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *restaurantService) GetByID(ctx context.Context, id uint) (*RestaurantResponse, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) GetByUUID(ctx context.Context, id uuid.UUID) (*RestaurantResponse, error) {
	restaurant, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) Create(ctx context.Context, req CreateRestaurantRequest) (*RestaurantResponse, error) {
	restaurant := &model.Restaurant{
		Name:        strings.TrimSpace(req.Name),
		Logo:        req.Logo,
		Address:     req.Address,
		City:        req.City,
		Phone:       req.Phone,
		Email:       req.Email,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, apperror.FromDB(err, "")
	}

	if req.IsActive != nil && !*req.IsActive {
		if err := s.repo.SetActive(ctx, restaurant.ID, false); err != nil {
			return nil, apperror.FromDB(err, "")
		}
	}
	return s.GetByID(ctx, restaurant.ID)
}

func (s *restaurantService) Update(ctx context.Context, id uint, req UpdateRestaurantRequest) (*RestaurantResponse, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}

	if req.Name != nil {
		restaurant.Name = strings.TrimSpace(*req.Name)
	}
	if req.Logo != nil {
		restaurant.Logo = *req.Logo
	}
	if req.Address != nil {
		restaurant.Address = *req.Address
	}
	if req.City != nil {
		restaurant.City = *req.City
	}
	if req.Phone != nil {
		restaurant.Phone = *req.Phone
	}
	if req.Email != nil {
		restaurant.Email = *req.Email
	}
	if req.Description != nil {
		restaurant.Description = *req.Description
	}
	if req.IsActive != nil {
		restaurant.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, restaurant); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return toRestaurantResponse(restaurant), nil
}

func (s *restaurantService) Deactivate(ctx context.Context, id uint) (*RestaurantResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *restaurantService) Reactivate(ctx context.Context, id uint) (*RestaurantResponse, error) {
	return s.setActive(ctx, id, true)
}

func (s *restaurantService) setActive(ctx context.Context, id uint, active bool) (*RestaurantResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *restaurantService) HardDelete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgRestaurantNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

func (s *restaurantService) Stats(ctx context.Context) (*repository.ActiveCounts, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return &stats, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgUserNotFound       = "Usuário não encontrado"
	msgEmailInUse         = "Email já está em uso"
	msgSuperAdminNoRest   = "Super admin não pode ter restaurante associado"
	msgRestUserNeedsRest  = "Usuário de restaurante deve ter restaurante associado"
	msgRestaurantNotFound = "Restaurante não encontrado"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=255"`
	Email        string `json:"email" binding:"required,email,max=255"`
	Password     string `json:"password" binding:"required,min=6,max=128"`
	Role         string `json:"role" binding:"required,oneof=super_admin restaurant_user"`
	RestaurantID *uint  `json:"restaurant_id" binding:"omitempty,min=1"`
}

type UpdateUserRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=255"`
	Email        *string `json:"email" binding:"omitempty,email,max=255"`
	Password     *string `json:"password" binding:"omitempty,min=6,max=128"`
	Role         *string `json:"role" binding:"omitempty,oneof=super_admin restaurant_user"`
	RestaurantID *uint   `json:"restaurant_id" binding:"omitempty,min=1"`
	IsActive     *bool   `json:"is_active"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6,max=128"`
}

var userSortFields = []string{"name", "email", "role", "created_at", "updated_at", "last_login"}

type UserListQuery struct {
	ListQuery
	Role         string `form:"role" binding:"omitempty,oneof=super_admin restaurant_user"`
	RestaurantID *uint  `form:"restaurant_id" binding:"omitempty,min=1"`
	IsActive     *bool  `form:"is_active"`
	Search       string `form:"search" binding:"omitempty,max=255"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID            uint               `json:"id"`
	UUID          uuid.UUID          `json:"uuid"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Role          string             `json:"role"`
	RestaurantID  *uint              `json:"restaurant_id"`
	Restaurant    *RestaurantSummary `json:"restaurant,omitempty"`
	IsActive      bool               `json:"is_active"`
	EmailVerified bool               `json:"email_verified"`
	LastLogin     *time.Time         `json:"last_login"`
	CreatedBy     *uint              `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// RoleRestaurantError checks the role/restaurant invariant: super admins have
// no restaurant, restaurant users must have one.
func RoleRestaurantError(role string, restaurantID *uint) *apperror.FieldError {
	switch {
	case role == model.RoleSuperAdmin && restaurantID != nil:
		return &apperror.FieldError{Field: "restaurant_id", Message: msgSuperAdminNoRest, Type: "custom.superAdminRestaurant"}
	case role == model.RoleRestaurantUser && restaurantID == nil:
		return &apperror.FieldError{Field: "restaurant_id", Message: msgRestUserNeedsRest, Type: "custom.restaurantUserRestaurant"}
	}
	return nil
}

// UserService defines the interface for business logic related to User
type UserService interface {
	List(ctx context.Context, actor Actor, q UserListQuery) (*ListResult[UserResponse], error)
	GetByID(ctx context.Context, id uint) (*UserResponse, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateUserRequest) (*UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (*UserResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (*UserResponse, error)
	Reactivate(ctx context.Context, id uint) (*UserResponse, error)
	Stats(ctx context.Context) (*repository.UserStats, error)
}

type userService struct {
	repo        repository.UserRepository
	tokens      repository.AuthTokenRepository
	restaurants repository.RestaurantRepository
	tx          repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokens repository.AuthTokenRepository,
	restaurants repository.RestaurantRepository,
	tx repository.TransactionManager,
) UserService {
	return &userService{repo: repo, tokens: tokens, restaurants: restaurants, tx: tx}
}

// Helper: parse model to standard json API response
func toUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		UUID:          user.UUID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		RestaurantID:  user.RestaurantID,
		Restaurant:    toRestaurantSummary(user.Restaurant),
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		LastLogin:     user.LastLogin,
		CreatedBy:     user.CreatedBy,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func (s *userService) List(ctx context.Context, actor Actor, q UserListQuery) (*ListResult[UserResponse], error) {
	params := q.params(10)
	filter := repository.UserFilter{
		Role:         q.Role,
		RestaurantID: actor.ScopeRestaurant(q.RestaurantID),
		IsActive:     q.IsActive,
		Search:       q.Search,
	}

	users, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(userSortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, *toUserResponse(&users[i]))
	}
	return &ListResult[UserResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgUserNotFound)
	}
	return toUserResponse(user), nil
}

func (s *userService) Exists(ctx context.Context, id uint) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperror.FromDB(err, "")
	}
	return true, nil
}

func (s *userService) Create(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, apperror.Unauthorized("Apenas super administradores podem criar usuários")
	}
	if fe := RoleRestaurantError(req.Role, req.RestaurantID); fe != nil {
		return nil, apperror.Validation(fe.Message, *fe)
	}

	// Double check email uniqueness via repo directly
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	if req.RestaurantID != nil {
		if _, err := s.restaurants.FindByID(ctx, *req.RestaurantID); err != nil {
			return nil, apperror.FromDB(err, msgRestaurantNotFound)
		}
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	createdBy := actor.UserID
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
		RestaurantID: req.RestaurantID,
		IsActive:     true,
		CreatedBy:    &createdBy,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if apperror.IsDuplicate(err) {
			return nil, apperror.Conflict(msgEmailInUse)
		}
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, user.ID)
}

func (s *userService) Update(ctx context.Context, actor Actor, id uint, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgUserNotFound)
	}

	if !actor.IsSuperAdmin() && (req.Role != nil || req.RestaurantID != nil || req.IsActive != nil) {
		return nil, apperror.Unauthorized("Sem permissão para alterar role, restaurante ou status do usuário")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		if err := s.ensureEmailFree(ctx, *req.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashed, err := HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if req.Role != nil {
		user.Role = *req.Role
		if user.Role == model.RoleSuperAdmin {
			user.RestaurantID = nil
		}
	}
	if req.RestaurantID != nil {
		if _, err := s.restaurants.FindByID(ctx, *req.RestaurantID); err != nil {
			return nil, apperror.FromDB(err, msgRestaurantNotFound)
		}
		user.RestaurantID = req.RestaurantID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if fe := RoleRestaurantError(user.Role, user.RestaurantID); fe != nil {
		return nil, apperror.Validation(fe.Message, *fe)
	}

	user.Restaurant = nil
	if err := s.repo.Update(ctx, user); err != nil {
		if apperror.IsDuplicate(err) {
			return nil, apperror.Conflict(msgEmailInUse)
		}
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, user.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (*UserResponse, error) {
	return s.Update(ctx, actor, actor.UserID, UpdateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
}

func (s *userService) Deactivate(ctx context.Context, actor Actor, id uint) (*UserResponse, error) {
	if actor.UserID == id {
		return nil, apperror.Validation("Não é possível inativar o próprio usuário")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return apperror.FromDB(err, msgUserNotFound)
		}

		if user.IsSuperAdmin() && user.IsActive {
			count, err := s.repo.CountActiveSuperAdmins(txCtx)
			if err != nil {
				return apperror.FromDB(err, "")
			}
			if count <= 1 {
				return apperror.Validation("Não é possível inativar o último super administrador")
			}
		}

		if err := s.repo.UpdateFields(txCtx, id, map[string]any{"is_active": false}); err != nil {
			return apperror.FromDB(err, "")
		}
		if err := s.tokens.RevokeAllForUser(txCtx, id); err != nil {
			return fmt.Errorf("failed to revoke tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Reactivate(ctx context.Context, id uint) (*UserResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, apperror.FromDB(err, msgUserNotFound)
	}
	if err := s.repo.UpdateFields(ctx, id, map[string]any{"is_active": true}); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, id)
}

func (s *userService) Stats(ctx context.Context) (*repository.UserStats, error) {
	stats, err := s.repo.Stats(ctx, nil)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return &stats, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, excludeID uint) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil && existing.ID != excludeID {
		return apperror.Conflict(msgEmailInUse)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.FromDB(err, "")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgTableNotFound   = "Mesa não encontrada"
	msgAllTablesExist  = "Todas as mesas especificadas já existem"
	msgTableRangeLimit = "Range máximo de 100 mesas por vez"
	maxTablesPerBatch  = 100
)

func tableExistsMessage(number int) string {
	return fmt.Sprintf("Mesa %d já existe neste restaurante", number)
}

type CreateTableRequest struct {
	RestaurantID uint   `json:"restaurant_id" binding:"required,min=1"`
	TableNumber  int    `json:"table_number" binding:"required,min=1"`
	Name         string `json:"name" binding:"omitempty,max=100"`
	Capacity     *int   `json:"capacity" binding:"omitempty,min=1,max=50"`
	Location     string `json:"location" binding:"omitempty,max=255"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateTableRequest struct {
	TableNumber *int    `json:"table_number" binding:"omitempty,min=1"`
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=1,max=50"`
	Location    *string `json:"location" binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
}

type BatchTablesRequest struct {
	TableNumbers []int `json:"table_numbers" binding:"required,min=1,max=100,unique,dive,min=1"`
	Capacity     *int  `json:"capacity" binding:"omitempty,min=1,max=50"`
}

type GenerateTablesRequest struct {
	StartNumber int  `json:"start_number" binding:"required,min=1"`
	EndNumber   int  `json:"end_number" binding:"required,min=1,gtefield=StartNumber"`
	Capacity    *int `json:"capacity" binding:"omitempty,min=1,max=50"`
}

// RangeError rejects generate requests spanning more tables than one batch allows.
func RangeError(start, end int) *apperror.FieldError {
	if end-start+1 > maxTablesPerBatch {
		return &apperror.FieldError{Field: "end_number", Message: msgTableRangeLimit, Type: "custom.rangeTooBig"}
	}
	return nil
}

var tableSortFields = []string{"table_number", "name", "capacity", "created_at", "updated_at"}

type TableListQuery struct {
	ListQuery
	RestaurantID *uint  `form:"restaurant_id" binding:"omitempty,min=1"`
	IsActive     *bool  `form:"is_active"`
	MinCapacity  *int   `form:"min_capacity" binding:"omitempty,min=1"`
	Search       string `form:"search" binding:"omitempty,max=255"`
}

type TableResponse struct {
	ID                uint               `json:"id"`
	UUID              uuid.UUID          `json:"uuid"`
	RestaurantID      uint               `json:"restaurant_id"`
	Restaurant        *RestaurantSummary `json:"restaurant,omitempty"`
	TableNumber       int                `json:"table_number"`
	Name              string             `json:"name"`
	Capacity          int                `json:"capacity"`
	Location          string             `json:"location"`
	QRCodeGenerated   bool               `json:"qr_code_generated"`
	LastQRGeneratedAt *time.Time         `json:"last_qr_generated_at"`
	IsActive          bool               `json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type BatchTablesResult struct {
	Created      []TableResponse `json:"created"`
	Skipped      []int           `json:"skipped"`
	TotalCreated int             `json:"total_created"`
	TotalSkipped int             `json:"total_skipped"`
}

func toTableResponse(t *model.Table) *TableResponse {
	return &TableResponse{
		ID:                t.ID,
		UUID:              t.UUID,
		RestaurantID:      t.RestaurantID,
		Restaurant:        toRestaurantSummary(t.Restaurant),
		TableNumber:       t.TableNumber,
		Name:              t.Name,
		Capacity:          t.Capacity,
		Location:          t.Location,
		QRCodeGenerated:   t.QRCodeGenerated,
		LastQRGeneratedAt: t.LastQRGeneratedAt,
		IsActive:          t.IsActive,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

type TableService interface {
	List(ctx context.Context, actor Actor, q TableListQuery) (*ListResult[TableResponse], error)
	GetByID(ctx context.Context, actor Actor, id uint) (*TableResponse, error)
	GetByNumber(ctx context.Context, restaurantID uint, number int) (*TableResponse, error)
	Create(ctx context.Context, actor Actor, req CreateTableRequest) (*TableResponse, error)
	CreateBatch(ctx context.Context, actor Actor, restaurantID uint, req BatchTablesRequest) (*BatchTablesResult, error)
	Generate(ctx context.Context, actor Actor, restaurantID uint, req GenerateTablesRequest) (*BatchTablesResult, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateTableRequest) (*TableResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (*TableResponse, error)
	Reactivate(ctx context.Context, actor Actor, id uint) (*TableResponse, error)
	HardDelete(ctx context.Context, id uint) error
	Stats(ctx context.Context, restaurantID *uint) (*repository.TableStats, error)
}

type tableService struct {
	repo        repository.TableRepository
	restaurants repository.RestaurantRepository
	tx          repository.TransactionManager
}

func NewTableService(
	repo repository.TableRepository,
	restaurants repository.RestaurantRepository,
	tx repository.TransactionManager,
) TableService {
	return &tableService{repo: repo, restaurants: restaurants, tx: tx}
}

func (s *tableService) List(ctx context.Context, actor Actor, q TableListQuery) (*ListResult[TableResponse], error) {
	params := q.params(10)
	filter := repository.TableFilter{
		RestaurantID: actor.ScopeRestaurant(q.RestaurantID),
		IsActive:     q.IsActive,
		MinCapacity:  q.MinCapacity,
		Search:       q.Search,
	}

	tables, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(tableSortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]TableResponse, 0, len(tables))
	for i := range tables {
		items = append(items, *toTableResponse(&tables[i]))
	}
	return &ListResult[TableResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *tableService) load(ctx context.Context, actor Actor, id uint) (*model.Table, error) {
	table, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgTableNotFound)
	}
	if !actor.CanAccessRestaurant(table.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	return table, nil
}

func (s *tableService) GetByID(ctx context.Context, actor Actor, id uint) (*TableResponse, error) {
	table, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toTableResponse(table), nil
}

func (s *tableService) GetByNumber(ctx context.Context, restaurantID uint, number int) (*TableResponse, error) {
	table, err := s.repo.FindByRestaurantAndNumber(ctx, restaurantID, number)
	if err != nil {
		return nil, apperror.FromDB(err, msgTableNotFound)
	}
	return toTableResponse(table), nil
}

func (s *tableService) restaurant(ctx context.Context, actor Actor, id uint) error {
	if !actor.CanAccessRestaurant(id) {
		return apperror.Unauthorized(msgRestaurantDenied)
	}
	if _, err := s.restaurants.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgRestaurantNotFound)
	}
	return nil
}

// ensureNumberFree rejects a table number already taken in the restaurant.
func (s *tableService) ensureNumberFree(ctx context.Context, restaurantID uint, number int) error {
	_, err := s.repo.FindByRestaurantAndNumber(ctx, restaurantID, number)
	if err == nil {
		return apperror.Conflict(tableExistsMessage(number))
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return apperror.FromDB(err, "")
}

// numberConflict turns a unique index violation into the table-specific message.
func numberConflict(err error, number int) error {
	err = apperror.FromDB(err, "")
	if apperror.Is(err, apperror.KindConflict) {
		return apperror.Conflict(tableExistsMessage(number))
	}
	return err
}

func (s *tableService) Create(ctx context.Context, actor Actor, req CreateTableRequest) (*TableResponse, error) {
	if err := s.restaurant(ctx, actor, req.RestaurantID); err != nil {
		return nil, err
	}
	if err := s.ensureNumberFree(ctx, req.RestaurantID, req.TableNumber); err != nil {
		return nil, err
	}

	table := &model.Table{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Name:         req.Name,
		Capacity:     4,
		Location:     req.Location,
		IsActive:     true,
	}
	if req.Capacity != nil {
		table.Capacity = *req.Capacity
	}
	if table.Name == "" {
		table.Name = fmt.Sprintf("Mesa %d", req.TableNumber)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, table); err != nil {
			return numberConflict(err, req.TableNumber)
		}
		if req.IsActive != nil && !*req.IsActive {
			return apperror.FromDB(s.repo.SetActive(txCtx, table.ID, false), "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, actor, table.ID)
}

func (s *tableService) CreateBatch(ctx context.Context, actor Actor, restaurantID uint, req BatchTablesRequest) (*BatchTablesResult, error) {
	capacity := 4
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	return s.createNumbers(ctx, actor, restaurantID, req.TableNumbers, capacity)
}

func (s *tableService) Generate(ctx context.Context, actor Actor, restaurantID uint, req GenerateTablesRequest) (*BatchTablesResult, error) {
	if req.EndNumber < req.StartNumber {
		return nil, apperror.Validation("", apperror.FieldError{
			Field:   "end_number",
			Message: "Número final deve ser maior ou igual ao inicial",
			Type:    "custom.rangeOrder",
		})
	}
	if fe := RangeError(req.StartNumber, req.EndNumber); fe != nil {
		return nil, apperror.Validation("", *fe)
	}

	numbers := make([]int, 0, req.EndNumber-req.StartNumber+1)
	for n := req.StartNumber; n <= req.EndNumber; n++ {
		numbers = append(numbers, n)
	}
	capacity := 4
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	return s.createNumbers(ctx, actor, restaurantID, numbers, capacity)
}

// createNumbers inserts the numbers not yet taken and reports the rest as skipped.
func (s *tableService) createNumbers(ctx context.Context, actor Actor, restaurantID uint, numbers []int, capacity int) (*BatchTablesResult, error) {
	if err := s.restaurant(ctx, actor, restaurantID); err != nil {
		return nil, err
	}

	var tables []model.Table
	result := &BatchTablesResult{Created: []TableResponse{}, Skipped: []int{}}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.ExistingNumbers(txCtx, restaurantID, numbers)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		taken := make(map[int]bool, len(existing))
		for _, n := range existing {
			taken[n] = true
		}

		for _, n := range numbers {
			if taken[n] {
				result.Skipped = append(result.Skipped, n)
				continue
			}
			taken[n] = true
			tables = append(tables, model.Table{
				RestaurantID: restaurantID,
				TableNumber:  n,
				Name:         fmt.Sprintf("Mesa %d", n),
				Capacity:     capacity,
				IsActive:     true,
			})
		}
		if len(tables) == 0 {
			return apperror.Conflict(msgAllTablesExist)
		}
		if err := s.repo.CreateBatch(txCtx, tables); err != nil {
			return apperror.FromDB(err, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Ints(result.Skipped)
	for i := range tables {
		result.Created = append(result.Created, *toTableResponse(&tables[i]))
	}
	result.TotalCreated = len(result.Created)
	result.TotalSkipped = len(result.Skipped)
	return result, nil
}

func (s *tableService) Update(ctx context.Context, actor Actor, id uint, req UpdateTableRequest) (*TableResponse, error) {
	table, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.TableNumber != nil && *req.TableNumber != table.TableNumber {
		if err := s.ensureNumberFree(ctx, table.RestaurantID, *req.TableNumber); err != nil {
			return nil, err
		}
		table.TableNumber = *req.TableNumber
	}
	if req.Name != nil {
		table.Name = *req.Name
	}
	if req.Capacity != nil {
		table.Capacity = *req.Capacity
	}
	if req.Location != nil {
		table.Location = *req.Location
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}

	table.Restaurant = nil
	if err := s.repo.Update(ctx, table); err != nil {
		return nil, numberConflict(err, table.TableNumber)
	}
	return s.GetByID(ctx, actor, id)
}

func (s *tableService) Deactivate(ctx context.Context, actor Actor, id uint) (*TableResponse, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *tableService) Reactivate(ctx context.Context, actor Actor, id uint) (*TableResponse, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *tableService) setActive(ctx context.Context, actor Actor, id uint, active bool) (*TableResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return s.GetByID(ctx, actor, id)
}

func (s *tableService) HardDelete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgTableNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err, "")
	}
	return nil
}

func (s *tableService) Stats(ctx context.Context, restaurantID *uint) (*repository.TableStats, error) {
	stats, err := s.repo.Stats(ctx, restaurantID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return &stats, nil
}

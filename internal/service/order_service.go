package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/metrics"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	msgOrderNotFound       = "Pedido não encontrado"
	msgOrderNeedsItems     = "Pedido deve ter pelo menos um item"
	msgInvalidTransition   = "Transição de status inválida"
	msgRestaurantIDNeeded  = "Restaurant ID é obrigatório"
	msgOrderStatusConflict = "O status do pedido foi alterado por outra operação"

	orderNumberAttempts = 5
	kitchenLimit        = 50
	topProductsLimit    = 5
)

// Order events published to realtime subscribers.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)

var orderTransitions = map[string][]string{
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed: {model.OrderStatusPreparing, model.OrderStatusCancelled},
	model.OrderStatusPreparing: {model.OrderStatusReady, model.OrderStatusCancelled},
	model.OrderStatusReady:     {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// Delivered and cancelled orders are terminal.
func CanTransition(from, to string) bool {
	return slices.Contains(orderTransitions[from], to)
}

// OrderPublisher fans order events out to the subscribers of a restaurant.
type OrderPublisher interface {
	Publish(restaurantID uint, event string, data any)
}

type OrderItemRequest struct {
	ProductID uint     `json:"product_id" binding:"required,min=1"`
	Quantity  int      `json:"quantity" binding:"required,min=1,max=999"`
	UnitPrice *float64 `json:"unit_price" binding:"omitempty,gt=0"`
	Notes     string   `json:"notes" binding:"omitempty,max=500"`
}

type CreateOrderRequest struct {
	RestaurantID  uint               `json:"restaurant_id" binding:"required,min=1"`
	TableID       *uint              `json:"table_id" binding:"omitempty,min=1"`
	CustomerName  string             `json:"customer_name" binding:"omitempty,max=255"`
	CustomerPhone string             `json:"customer_phone" binding:"omitempty,max=20"`
	Notes         string             `json:"notes" binding:"omitempty,max=1000"`
	Items         []OrderItemRequest `json:"items" binding:"dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed preparing ready delivered cancelled"`
}

var orderSortFields = []string{"created_at", "updated_at", "order_number", "status", "total_amount"}

type OrderListQuery struct {
	ListQuery
	RestaurantID *uint  `form:"restaurant_id" binding:"omitempty,min=1"`
	TableID      *uint  `form:"table_id" binding:"omitempty,min=1"`
	Status       string `form:"status"`
	StartDate    string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate      string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

type OrderStatsQuery struct {
	Period       string `form:"period" binding:"omitempty,oneof=today week month"`
	RestaurantID *uint  `form:"restaurant_id" binding:"omitempty,min=1"`
}

type TableSummary struct {
	ID          uint      `json:"id"`
	UUID        uuid.UUID `json:"uuid"`
	TableNumber int       `json:"table_number"`
	Name        string    `json:"name"`
}

type ProductSummary struct {
	ID       uint      `json:"id"`
	UUID     uuid.UUID `json:"uuid"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url"`
}

type OrderItemResponse struct {
	ID         uint            `json:"id"`
	ProductID  uint            `json:"product_id"`
	Product    *ProductSummary `json:"product,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  float64         `json:"unit_price"`
	TotalPrice float64         `json:"total_price"`
	Notes      string          `json:"notes"`
}

type OrderResponse struct {
	ID            uint                `json:"id"`
	UUID          uuid.UUID           `json:"uuid"`
	RestaurantID  uint                `json:"restaurant_id"`
	Restaurant    *RestaurantSummary  `json:"restaurant,omitempty"`
	TableID       *uint               `json:"table_id"`
	Table         *TableSummary       `json:"table,omitempty"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	Subtotal      float64             `json:"subtotal"`
	TotalAmount   float64             `json:"total_amount"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	Notes         string              `json:"notes"`
	ConfirmedAt   *time.Time          `json:"confirmed_at"`
	ReadyAt       *time.Time          `json:"ready_at"`
	DeliveredAt   *time.Time          `json:"delivered_at"`
	CancelledAt   *time.Time          `json:"cancelled_at"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderStats struct {
	Period       string  `json:"period"`
	TotalOrders  int     `json:"total_orders"`
	Pending      int     `json:"pending"`
	Confirmed    int     `json:"confirmed"`
	Preparing    int     `json:"preparing"`
	Ready        int     `json:"ready"`
	Delivered    int     `json:"delivered"`
	Cancelled    int     `json:"cancelled"`
	TotalRevenue float64 `json:"total_revenue"`

	TopProducts []model.ProductRanking `json:"top_products"`
}

func toOrderResponse(o *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:            o.ID,
		UUID:          o.UUID,
		RestaurantID:  o.RestaurantID,
		Restaurant:    toRestaurantSummary(o.Restaurant),
		TableID:       o.TableID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		Subtotal:      o.Subtotal.InexactFloat64(),
		TotalAmount:   o.TotalAmount.InexactFloat64(),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Notes:         o.Notes,
		ConfirmedAt:   o.ConfirmedAt,
		ReadyAt:       o.ReadyAt,
		DeliveredAt:   o.DeliveredAt,
		CancelledAt:   o.CancelledAt,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Table != nil && o.Table.ID != 0 {
		resp.Table = &TableSummary{ID: o.Table.ID, UUID: o.Table.UUID, TableNumber: o.Table.TableNumber, Name: o.Table.Name}
	}
	for _, item := range o.Items {
		ir := OrderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			TotalPrice: item.TotalPrice.InexactFloat64(),
			Notes:      item.Notes,
		}
		if item.Product != nil && item.Product.ID != 0 {
			ir.Product = &ProductSummary{ID: item.Product.ID, UUID: item.Product.UUID, Name: item.Product.Name, ImageURL: item.Product.ImageURL}
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

type OrderService interface {
	List(ctx context.Context, actor Actor, q OrderListQuery) (*ListResult[OrderResponse], error)
	GetByID(ctx context.Context, actor Actor, id uint) (*OrderResponse, error)
	Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uint, req UpdateOrderStatusRequest) (*OrderResponse, error)
	Kitchen(ctx context.Context, actor Actor, restaurantID *uint) ([]OrderResponse, error)
	Stats(ctx context.Context, actor Actor, q OrderStatsQuery) (*OrderStats, error)
}

type orderService struct {
	repo        repository.OrderRepository
	products    repository.ProductRepository
	tables      repository.TableRepository
	restaurants repository.RestaurantRepository
	tx          repository.TransactionManager
	events      OrderPublisher
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewOrderService wires the order workflow. events may be nil.
func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	tables repository.TableRepository,
	restaurants repository.RestaurantRepository,
	tx repository.TransactionManager,
	events OrderPublisher,
	log logrus.FieldLogger,
) OrderService {
	return &orderService{
		repo:        repo,
		products:    products,
		tables:      tables,
		restaurants: restaurants,
		tx:          tx,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

func (s *orderService) publish(restaurantID uint, event string, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(restaurantID, event, data)
}

func (s *orderService) List(ctx context.Context, actor Actor, q OrderListQuery) (*ListResult[OrderResponse], error) {
	params := q.params(10)
	filter := repository.OrderFilter{
		RestaurantID: actor.ScopeRestaurant(q.RestaurantID),
		TableID:      q.TableID,
	}
	for _, st := range strings.Split(q.Status, ",") {
		if st = strings.TrimSpace(st); st != "" {
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if q.StartDate != "" {
		from, err := time.Parse(time.DateOnly, q.StartDate)
		if err != nil {
			return nil, apperror.Validation("", apperror.FieldError{Field: "start_date", Message: "Data inválida", Type: "date.base"})
		}
		filter.From = &from
	}
	if q.EndDate != "" {
		to, err := time.Parse(time.DateOnly, q.EndDate)
		if err != nil {
			return nil, apperror.Validation("", apperror.FieldError{Field: "end_date", Message: "Data inválida", Type: "date.base"})
		}
		// inclusive of the whole end day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	orders, total, err := s.repo.List(ctx, filter, pageOf(params), q.sort(orderSortFields...))
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *toOrderResponse(&orders[i]))
	}
	return &ListResult[OrderResponse]{Items: items, Pagination: params.Meta(total)}, nil
}

func (s *orderService) load(ctx context.Context, actor Actor, id uint) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgOrderNotFound)
	}
	if !actor.CanAccessRestaurant(order.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, actor Actor, id uint) (*OrderResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, apperror.Validation(msgOrderNeedsItems, apperror.FieldError{
			Field:   "items",
			Message: msgOrderNeedsItems,
			Type:    "array.min",
		})
	}
	if !actor.CanAccessRestaurant(req.RestaurantID) {
		return nil, apperror.Unauthorized(msgRestaurantDenied)
	}
	if _, err := s.restaurants.FindByID(ctx, req.RestaurantID); err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	if req.TableID != nil {
		table, err := s.tables.FindByID(ctx, *req.TableID)
		if err != nil {
			return nil, apperror.FromDB(err, msgTableNotFound)
		}
		if table.RestaurantID != req.RestaurantID {
			return nil, apperror.Validation("", apperror.FieldError{
				Field:   "table_id",
				Message: "Mesa não pertence a este restaurante",
				Type:    "custom.sameRestaurant",
			})
		}
	}

	items, subtotal, err := s.priceItems(ctx, req)
	if err != nil {
		return nil, err
	}

	var orderID uint
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order := &model.Order{
			RestaurantID:  req.RestaurantID,
			TableID:       req.TableID,
			Status:        model.OrderStatusPending,
			Subtotal:      subtotal,
			TotalAmount:   subtotal,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Notes:         req.Notes,
			Items:         slices.Clone(items),
		}

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			number, err := s.nextOrderNumber(txCtx, req.RestaurantID)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return apperror.FromDB(s.repo.Create(txCtx, order), "")
		})
		if err == nil {
			orderID = order.ID
			break
		}
		if !apperror.Is(err, apperror.KindConflict) {
			return nil, err
		}
		s.log.WithField("attempt", attempt).WithField("order_number", order.OrderNumber).
			Warn("order number collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	created, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperror.FromDB(err, msgOrderNotFound)
	}
	resp := toOrderResponse(created)
	s.publish(resp.RestaurantID, EventOrderCreated, resp)
	return resp, nil
}

// priceItems resolves every line against the catalogue and sums the order.
func (s *orderService) priceItems(ctx context.Context, req CreateOrderRequest) ([]model.OrderItem, decimal.Decimal, error) {
	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for i, line := range req.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, apperror.FromDB(err, fmt.Sprintf("Produto %d não encontrado", line.ProductID))
		}
		if product.Category == nil || product.Category.RestaurantID != req.RestaurantID {
			return nil, decimal.Zero, apperror.Validation("", apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "Produto não pertence a este restaurante",
				Type:    "custom.sameRestaurant",
			})
		}
		if !product.IsAvailable {
			return nil, decimal.Zero, apperror.Validation("", apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: fmt.Sprintf("Produto %s indisponível", product.Name),
				Type:    "custom.productUnavailable",
			})
		}

		unit := product.CurrentPrice
		if line.UnitPrice != nil {
			unit = price(*line.UnitPrice)
		}
		total := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(total)
		items = append(items, model.OrderItem{
			ProductID:  product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  unit,
			TotalPrice: total,
			Notes:      line.Notes,
		})
	}
	return items, subtotal, nil
}

// nextOrderNumber returns {restaurant}-{YYYYMMDD}-{seq} with seq one above the
// highest number issued today. The unique index on order_number settles races.
func (s *orderService) nextOrderNumber(ctx context.Context, restaurantID uint) (string, error) {
	prefix := fmt.Sprintf("%d-%s-", restaurantID, s.now().UTC().Format("20060102"))
	last, err := s.repo.LastOrderNumber(ctx, prefix)
	if err != nil {
		return "", apperror.FromDB(err, "")
	}
	seq := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, id uint, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from, to := order.Status, req.Status
	if !CanTransition(from, to) {
		return nil, apperror.Validation(msgInvalidTransition, apperror.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("Não é possível alterar o status de %s para %s", from, to),
			Type:    "custom.statusTransition",
		})
	}

	now := s.now()
	fields := map[string]any{"status": to, "updated_at": now}
	switch to {
	case model.OrderStatusConfirmed:
		fields["confirmed_at"] = now
	case model.OrderStatusReady:
		fields["ready_at"] = now
	case model.OrderStatusDelivered:
		fields["delivered_at"] = now
	case model.OrderStatusCancelled:
		fields["cancelled_at"] = now
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rows, err := s.repo.TransitionStatus(txCtx, id, from, fields)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		if rows == 0 {
			return apperror.Conflict(msgOrderStatusConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusTransitions.WithLabelValues(from, to).Inc()
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgOrderNotFound)
	}
	resp := toOrderResponse(updated)
	s.publish(resp.RestaurantID, EventOrderStatusUpdated, map[string]any{
		"order":           resp,
		"previous_status": from,
	})
	return resp, nil
}

// Kitchen lists the orders waiting on the kitchen, oldest first.
func (s *orderService) Kitchen(ctx context.Context, actor Actor, restaurantID *uint) ([]OrderResponse, error) {
	scope := actor.ScopeRestaurant(restaurantID)
	if scope == nil {
		return nil, apperror.Validation(msgRestaurantIDNeeded, apperror.FieldError{
			Field:   "restaurant_id",
			Message: msgRestaurantIDNeeded,
			Type:    "any.required",
		})
	}

	filter := repository.OrderFilter{
		RestaurantID: scope,
		Statuses:     []string{model.OrderStatusConfirmed, model.OrderStatusPreparing},
	}
	orders, _, err := s.repo.List(ctx, filter, repository.Page{Limit: kitchenLimit}, repository.Sort{Field: "created_at"})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *toOrderResponse(&orders[i]))
	}
	return items, nil
}

// periodStart returns the first instant counted by a stats period. Days start
// at UTC midnight, the same calendar used for order numbers.
func periodStart(period string, now time.Time) time.Time {
	now = now.UTC()
	switch period {
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

func (s *orderService) Stats(ctx context.Context, actor Actor, q OrderStatsQuery) (*OrderStats, error) {
	period := q.Period
	if period == "" {
		period = "today"
	}

	scope := actor.ScopeRestaurant(q.RestaurantID)
	since := periodStart(period, s.now())
	orders, err := s.repo.ListForStats(ctx, scope, since)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	top, err := s.repo.TopProducts(ctx, scope, since, topProductsLimit)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	stats := &OrderStats{Period: period, TotalOrders: len(orders), TopProducts: top}
	if stats.TopProducts == nil {
		stats.TopProducts = []model.ProductRanking{}
	}
	revenue := decimal.Zero
	for _, o := range orders {
		switch o.Status {
		case model.OrderStatusPending:
			stats.Pending++
		case model.OrderStatusConfirmed:
			stats.Confirmed++
		case model.OrderStatusPreparing:
			stats.Preparing++
		case model.OrderStatusReady:
			stats.Ready++
		case model.OrderStatusDelivered:
			stats.Delivered++
			revenue = revenue.Add(o.TotalAmount)
		case model.OrderStatusCancelled:
			stats.Cancelled++
		}
	}
	stats.TotalRevenue = revenue.Round(2).InexactFloat64()
	return stats, nil
}

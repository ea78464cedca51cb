package handler

import (
	"foodway/internal/middleware"
	"foodway/internal/model"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	activity     service.ActivityService
	auth         *middleware.Auth
}

func NewOrderHandler(orderService service.OrderService, activity service.ActivityService, auth *middleware.Auth) *OrderHandler {
	return &OrderHandler{orderService: orderService, activity: activity, auth: auth}
}

type kitchenQuery struct {
	RestaurantID *uint `form:"restaurant_id" binding:"omitempty,min=1"`
}

// RegisterRoutes binds /orders
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	orders.Use(h.auth.Authenticate(), middleware.RequireRoles(model.RoleSuperAdmin, model.RoleRestaurantUser))
	{
		orders.GET("/stats", h.Stats)
		orders.GET("/kitchen", h.Kitchen)
		orders.GET("", h.List)
		orders.POST("", middleware.LogActivity(h.activity, "create_order", "order"), h.Create)
		orders.GET("/:id", h.GetByID)
		orders.PATCH("/:id/status", middleware.LogActivity(h.activity, service.ActionOrderStatus, "order"), h.UpdateStatus)
	}
}

// RegisterRestaurantRoutes binds /restaurants/:restaurant_id/orders
func (h *OrderHandler) RegisterRestaurantRoutes(restaurant *gin.RouterGroup) {
	orders := restaurant.Group("/orders")
	orders.Use(h.auth.Authenticate(), middleware.RequireRestaurantAccess("restaurant_id"))
	{
		orders.GET("/stats", h.StatsByRestaurant)
		orders.GET("/kitchen", h.KitchenByRestaurant)
		orders.GET("", h.ListByRestaurant)
		orders.POST("", middleware.LogActivity(h.activity, "create_order", "order"), h.CreateForRestaurant)
	}
}

// List handles GET /orders
// @Summary      List orders
// @Description  status accepts a comma separated list. Restaurant users only see their own restaurant.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  query     int     false  "Restaurant"
// @Param        table_id       query     int     false  "Table"
// @Param        status         query     string  false  "pending,confirmed,preparing,ready,delivered,cancelled"
// @Param        start_date     query     string  false  "YYYY-MM-DD"
// @Param        end_date       query     string  false  "YYYY-MM-DD"
// @Param        sort_by        query     string  false  "created_at, updated_at, order_number, status, total_amount"
// @Success      200            {object}  response.Envelope
// @Failure      401            {object}  response.Envelope
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	h.list(c, nil)
}

// ListByRestaurant handles GET /restaurants/{restaurant_id}/orders
// @Summary      Orders of a restaurant
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/orders [get]
func (h *OrderHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, &restaurantID)
}

func (h *OrderHandler) list(c *gin.Context, restaurantID *uint) {
	var q service.OrderListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.orderService.List(c.Request.Context(), actorOf(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, "Pedidos listados com sucesso", "orders", result)
}

// Stats handles GET /orders/stats
// @Summary      Order statistics
// @Description  total_revenue only counts delivered orders.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        period         query     string  false  "today, week or month"
// @Param        restaurant_id  query     int     false  "Restaurant"
// @Success      200            {object}  response.Envelope{data=service.OrderStats}
// @Router       /orders/stats [get]
func (h *OrderHandler) Stats(c *gin.Context) {
	h.stats(c, nil)
}

// StatsByRestaurant handles GET /restaurants/{restaurant_id}/orders/stats
// @Summary      Order statistics of a restaurant
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int     true   "Restaurant ID"
// @Param        period         query     string  false  "today, week or month"
// @Success      200            {object}  response.Envelope{data=service.OrderStats}
// @Router       /restaurants/{restaurant_id}/orders/stats [get]
func (h *OrderHandler) StatsByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, &restaurantID)
}

func (h *OrderHandler) stats(c *gin.Context, restaurantID *uint) {
	var q service.OrderStatsQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	stats, err := h.orderService.Stats(c.Request.Context(), actorOf(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Estatísticas obtidas", stats)
}

// Kitchen handles GET /orders/kitchen
// @Summary      Kitchen queue
// @Description  Confirmed and preparing orders, oldest first. Super admins must pass restaurant_id.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  query     int  false  "Restaurant"
// @Success      200            {object}  response.Envelope{data=[]service.OrderResponse}
// @Failure      422            {object}  response.Envelope
// @Router       /orders/kitchen [get]
func (h *OrderHandler) Kitchen(c *gin.Context) {
	var q kitchenQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	h.kitchen(c, q.RestaurantID)
}

// KitchenByRestaurant handles GET /restaurants/{restaurant_id}/orders/kitchen
// @Summary      Kitchen queue of a restaurant
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=[]service.OrderResponse}
// @Router       /restaurants/{restaurant_id}/orders/kitchen [get]
func (h *OrderHandler) KitchenByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.kitchen(c, &restaurantID)
}

func (h *OrderHandler) kitchen(c *gin.Context, restaurantID *uint) {
	orders, err := h.orderService.Kitchen(c.Request.Context(), actorOf(c), restaurantID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Pedidos da cozinha", orders)
}

// GetByID handles GET /orders/{id}
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  response.Envelope{data=service.OrderResponse}
// @Failure      404  {object}  response.Envelope
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Pedido encontrado", order)
}

// Create handles POST /orders
// @Summary      Create order
// @Description  unit_price defaults to the product's current price. Order numbers look like 3-20240115-001.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Envelope{data=service.OrderResponse}
// @Failure      422      {object}  response.Envelope
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

// CreateForRestaurant handles POST /restaurants/{restaurant_id}/orders
// @Summary      Create order in a restaurant
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                         true  "Restaurant ID"
// @Param        payload        body      service.CreateOrderRequest  true  "Order"
// @Success      201            {object}  response.Envelope{data=service.OrderResponse}
// @Router       /restaurants/{restaurant_id}/orders [post]
func (h *OrderHandler) CreateForRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CreateOrderRequest
	if err := validator.BindJSONWith(c, &req, func() { req.RestaurantID = restaurantID }); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

func (h *OrderHandler) create(c *gin.Context, req service.CreateOrderRequest) {
	order, err := h.orderService.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Pedido criado com sucesso", order.ID, order)
}

// UpdateStatus handles PATCH /orders/{id}/status
// @Summary      Move an order through its lifecycle
// @Description  pending > confirmed > preparing > ready > delivered. Any open order may be cancelled.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                               true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "New status"
// @Success      200      {object}  response.Envelope{data=service.OrderResponse}
// @Failure      422      {object}  response.Envelope
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateOrderStatusRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Status atualizado com sucesso", order)
}

package handler

import (
	"fmt"

	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type TableHandler struct {
	tableService service.TableService
	activity     service.ActivityService
	auth         *middleware.Auth
}

func NewTableHandler(tableService service.TableService, activity service.ActivityService, auth *middleware.Auth) *TableHandler {
	return &TableHandler{tableService: tableService, activity: activity, auth: auth}
}

// RegisterRoutes binds /tables. Every table route needs an authenticated caller.
func (h *TableHandler) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/tables")
	tables.Use(h.auth.Authenticate())
	{
		tables.GET("/stats", h.Stats)
		tables.GET("", h.List)
		tables.POST("", middleware.LogActivity(h.activity, "create_table", "table"), h.Create)
		tables.GET("/:id", h.GetByID)
		tables.PUT("/:id", middleware.LogActivity(h.activity, "update_table", "table"), h.Update)
		tables.DELETE("/:id", middleware.LogActivity(h.activity, "delete_table", "table"), h.Deactivate)
		tables.DELETE("/:id/hard", middleware.RequireSuperAdmin(),
			middleware.LogActivity(h.activity, "hard_delete_table", "table"), h.HardDelete)
		tables.PATCH("/:id/reactivate", middleware.LogActivity(h.activity, "reactivate_table", "table"), h.Reactivate)
	}
}

// RegisterRestaurantRoutes binds /restaurants/:restaurant_id/tables
func (h *TableHandler) RegisterRestaurantRoutes(restaurant *gin.RouterGroup) {
	tables := restaurant.Group("/tables")
	tables.Use(h.auth.Authenticate(), middleware.RequireRestaurantAccess("restaurant_id"))
	{
		tables.GET("/stats", h.StatsByRestaurant)
		tables.POST("/batch", middleware.LogActivity(h.activity, "create_tables_batch", "table"), h.CreateBatch)
		tables.POST("/generate", middleware.LogActivity(h.activity, "generate_tables_range", "table"), h.Generate)
		tables.GET("/number/:table_number", h.GetByNumber)
		tables.GET("", h.ListByRestaurant)
		tables.POST("", middleware.LogActivity(h.activity, "create_restaurant_table", "table"), h.CreateForRestaurant)
	}
}

// List handles GET /tables
// @Summary      List tables
// @Description  Restaurant users only see their own restaurant.
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  query     int     false  "Restaurant"
// @Param        is_active      query     bool    false  "Active flag"
// @Param        min_capacity   query     int     false  "Minimum capacity"
// @Param        search         query     string  false  "Name or location"
// @Param        sort_by        query     string  false  "table_number, name, capacity, created_at, updated_at"
// @Success      200            {object}  response.Envelope
// @Failure      401            {object}  response.Envelope
// @Router       /tables [get]
func (h *TableHandler) List(c *gin.Context) {
	h.list(c, nil, "Mesas listadas com sucesso")
}

// ListByRestaurant handles GET /restaurants/{restaurant_id}/tables
// @Summary      Tables of a restaurant
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/tables [get]
func (h *TableHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, &restaurantID, "Mesas do restaurante listadas com sucesso")
}

func (h *TableHandler) list(c *gin.Context, restaurantID *uint, message string) {
	var q service.TableListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.tableService.List(c.Request.Context(), actorOf(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, message, "tables", result)
}

// Stats handles GET /tables/stats
// @Summary      Table counts
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  query     int  false  "Restaurant"
// @Success      200            {object}  response.Envelope{data=repository.TableStats}
// @Router       /tables/stats [get]
func (h *TableHandler) Stats(c *gin.Context) {
	var q scopeQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	// restaurant users never see other restaurants' counts
	if actor := actorOf(c); !actor.IsSuperAdmin() {
		q.RestaurantID = actor.RestaurantID
	}
	h.stats(c, q.RestaurantID)
}

// StatsByRestaurant handles GET /restaurants/{restaurant_id}/tables/stats
// @Summary      Table counts of a restaurant
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=repository.TableStats}
// @Router       /restaurants/{restaurant_id}/tables/stats [get]
func (h *TableHandler) StatsByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, &restaurantID)
}

func (h *TableHandler) stats(c *gin.Context, restaurantID *uint) {
	stats, err := h.tableService.Stats(c.Request.Context(), restaurantID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Estatísticas obtidas com sucesso", stats)
}

// GetByID handles GET /tables/{id}
// @Summary      Get table
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Table ID"
// @Success      200  {object}  response.Envelope{data=service.TableResponse}
// @Failure      404  {object}  response.Envelope
// @Router       /tables/{id} [get]
func (h *TableHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.tableService.GetByID(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa encontrada com sucesso", table)
}

// GetByNumber handles GET /restaurants/{restaurant_id}/tables/number/{table_number}
// @Summary      Get table by number
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Param        table_number   path      int  true  "Table number"
// @Success      200            {object}  response.Envelope{data=service.TableResponse}
// @Failure      404            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/tables/number/{table_number} [get]
func (h *TableHandler) GetByNumber(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	number, err := paramInt(c, "table_number")
	if err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.tableService.GetByNumber(c.Request.Context(), restaurantID, number)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa encontrada com sucesso", table)
}

// Create handles POST /tables
// @Summary      Create table
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTableRequest  true  "Table"
// @Success      201      {object}  response.Envelope{data=service.TableResponse}
// @Failure      409      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /tables [post]
func (h *TableHandler) Create(c *gin.Context) {
	var req service.CreateTableRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

// CreateForRestaurant handles POST /restaurants/{restaurant_id}/tables
// @Summary      Create table in a restaurant
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                         true  "Restaurant ID"
// @Param        payload        body      service.CreateTableRequest  true  "Table"
// @Success      201            {object}  response.Envelope{data=service.TableResponse}
// @Failure      409            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/tables [post]
func (h *TableHandler) CreateForRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CreateTableRequest
	if err := validator.BindJSONWith(c, &req, func() { req.RestaurantID = restaurantID }); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

func (h *TableHandler) create(c *gin.Context, req service.CreateTableRequest) {
	table, err := h.tableService.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Mesa criada com sucesso", table.ID, table)
}

// CreateBatch handles POST /restaurants/{restaurant_id}/tables/batch
// @Summary      Create several tables
// @Description  Numbers that already exist are skipped. Fails with 409 when nothing was created.
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                         true  "Restaurant ID"
// @Param        payload        body      service.BatchTablesRequest  true  "Table numbers"
// @Success      201            {object}  response.Envelope{data=service.BatchTablesResult}
// @Failure      409            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/tables/batch [post]
func (h *TableHandler) CreateBatch(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.BatchTablesRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.tableService.CreateBatch(c.Request.Context(), actorOf(c), restaurantID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, fmt.Sprintf("%d mesas criadas com sucesso", result.TotalCreated), restaurantID, result)
}

// Generate handles POST /restaurants/{restaurant_id}/tables/generate
// @Summary      Create a range of tables
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                            true  "Restaurant ID"
// @Param        payload        body      service.GenerateTablesRequest  true  "Range"
// @Success      201            {object}  response.Envelope{data=service.BatchTablesResult}
// @Failure      422            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/tables/generate [post]
func (h *TableHandler) Generate(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.GenerateTablesRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.tableService.Generate(c.Request.Context(), actorOf(c), restaurantID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, fmt.Sprintf("Mesas %d-%d processadas com sucesso", req.StartNumber, req.EndNumber), restaurantID, result)
}

// Update handles PUT /tables/{id}
// @Summary      Update table
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Table ID"
// @Param        payload  body      service.UpdateTableRequest  true  "Fields"
// @Success      200      {object}  response.Envelope{data=service.TableResponse}
// @Failure      409      {object}  response.Envelope
// @Router       /tables/{id} [put]
func (h *TableHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateTableRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.tableService.Update(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa atualizada com sucesso", table)
}

// Deactivate handles DELETE /tables/{id}
// @Summary      Deactivate table
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Table ID"
// @Success      200  {object}  response.Envelope{data=service.TableResponse}
// @Router       /tables/{id} [delete]
func (h *TableHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.tableService.Deactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa desativada com sucesso", table)
}

// HardDelete handles DELETE /tables/{id}/hard
// @Summary      Delete table permanently
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Table ID"
// @Success      200  {object}  response.Envelope
// @Router       /tables/{id}/hard [delete]
func (h *TableHandler) HardDelete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.tableService.HardDelete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa deletada permanentemente", nil)
}

// Reactivate handles PATCH /tables/{id}/reactivate
// @Summary      Reactivate table
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Table ID"
// @Success      200  {object}  response.Envelope{data=service.TableResponse}
// @Router       /tables/{id}/reactivate [patch]
func (h *TableHandler) Reactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.tableService.Reactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Mesa reativada com sucesso", table)
}

package handler

import (
	"net/http"

	"foodway/internal/apperror"
	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	auth            *middleware.Auth
}

func NewCategoryHandler(categoryService service.CategoryService, auth *middleware.Auth) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auth: auth}
}

// RegisterRoutes binds /categories. Reads are public.
func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories")
	{
		categories.GET("/stats", h.Stats)
		categories.GET("/search", h.List)
		categories.GET("/uuid/:uuid", h.GetByUUID)
		categories.GET("", h.List)
		categories.GET("/:category_id", h.GetByID)
		categories.HEAD("/:category_id", h.Exists)

		categories.POST("", h.auth.Authenticate(), h.Create)
		categories.PUT("/:category_id", h.auth.Authenticate(), h.Update)
		categories.DELETE("/:category_id", h.auth.Authenticate(), h.Deactivate)
		categories.DELETE("/:category_id/hard", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.HardDelete)
		categories.PATCH("/:category_id/reactivate", h.auth.Authenticate(), h.Reactivate)
		categories.POST("/:category_id/duplicate", h.auth.Authenticate(), h.Duplicate)
	}
}

// RegisterRestaurantRoutes binds /restaurants/:restaurant_id/categories
func (h *CategoryHandler) RegisterRestaurantRoutes(restaurant *gin.RouterGroup) {
	categories := restaurant.Group("/categories")
	{
		categories.GET("/stats", h.StatsByRestaurant)
		categories.GET("/search", h.ListByRestaurant)
		categories.GET("", h.ListByRestaurant)
		categories.PUT("/reorder", h.auth.Authenticate(), h.Reorder)
		categories.POST("", h.auth.Authenticate(), h.CreateForRestaurant)
	}
}

// List handles GET /categories and GET /categories/search
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Param        restaurant_id           query     int     false  "Restaurant"
// @Param        is_active               query     bool    false  "Active flag"
// @Param        search                  query     string  false  "Name or description"
// @Param        include_products_count  query     bool    false  "Add products_count"
// @Param        sort_by                 query     string  false  "name, sort_order, created_at, updated_at"
// @Param        sort_order              query     string  false  "asc or desc"
// @Success      200                     {object}  response.Envelope
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	h.list(c, nil, "Categorias listadas com sucesso")
}

// ListByRestaurant handles GET /restaurants/{restaurant_id}/categories
// @Summary      Categories of a restaurant
// @Tags         categories
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/categories [get]
func (h *CategoryHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, &restaurantID, "Categorias do restaurante listadas com sucesso")
}

func (h *CategoryHandler) list(c *gin.Context, restaurantID *uint, message string) {
	var q service.CategoryListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.categoryService.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, message, "categories", result)
}

// Stats handles GET /categories/stats
// @Summary      Category counts
// @Tags         categories
// @Produce      json
// @Param        restaurant_id  query     int  false  "Restaurant"
// @Success      200            {object}  response.Envelope{data=repository.ActiveCounts}
// @Router       /categories/stats [get]
func (h *CategoryHandler) Stats(c *gin.Context) {
	var q scopeQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, q.RestaurantID, "Estatísticas obtidas com sucesso")
}

// StatsByRestaurant handles GET /restaurants/{restaurant_id}/categories/stats
// @Summary      Category counts of a restaurant
// @Tags         categories
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=repository.ActiveCounts}
// @Router       /restaurants/{restaurant_id}/categories/stats [get]
func (h *CategoryHandler) StatsByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, &restaurantID, "Estatísticas das categorias do restaurante obtidas com sucesso")
}

func (h *CategoryHandler) stats(c *gin.Context, restaurantID *uint, message string) {
	stats, err := h.categoryService.Stats(c.Request.Context(), restaurantID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, message, stats)
}

// GetByUUID handles GET /categories/uuid/{uuid}
// @Summary      Get category by UUID
// @Tags         categories
// @Produce      json
// @Param        uuid  path      string  true  "Category UUID"
// @Success      200   {object}  response.Envelope{data=service.CategoryResponse}
// @Failure      404   {object}  response.Envelope
// @Router       /categories/uuid/{uuid} [get]
func (h *CategoryHandler) GetByUUID(c *gin.Context) {
	id, err := paramUUID(c, "uuid")
	if err != nil {
		_ = c.Error(err)
		return
	}

	category, err := h.categoryService.GetByUUID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria encontrada com sucesso", category)
}

// GetByID handles GET /categories/{category_id}
// @Summary      Get category
// @Tags         categories
// @Produce      json
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope{data=service.CategoryResponse}
// @Failure      404          {object}  response.Envelope
// @Router       /categories/{category_id} [get]
func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria encontrada com sucesso", category)
}

// Exists handles HEAD /categories/{category_id}
func (h *CategoryHandler) Exists(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}
	if _, err := h.categoryService.GetByID(c.Request.Context(), id); err != nil {
		c.Status(apperror.StatusCode(err))
		return
	}
	c.Status(http.StatusOK)
}

// Create handles POST /categories
// @Summary      Create category
// @Description  sort_order defaults to the next position in the restaurant.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCategoryRequest  true  "Category"
// @Success      201      {object}  response.Envelope{data=service.CategoryResponse}
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

// CreateForRestaurant handles POST /restaurants/{restaurant_id}/categories
// @Summary      Create category in a restaurant
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                            true  "Restaurant ID"
// @Param        payload        body      service.CreateCategoryRequest  true  "Category"
// @Success      201            {object}  response.Envelope{data=service.CategoryResponse}
// @Router       /restaurants/{restaurant_id}/categories [post]
func (h *CategoryHandler) CreateForRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CreateCategoryRequest
	if err := validator.BindJSONWith(c, &req, func() { req.RestaurantID = restaurantID }); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

func (h *CategoryHandler) create(c *gin.Context, req service.CreateCategoryRequest) {
	category, err := h.categoryService.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Categoria criada com sucesso", category.ID, category)
}

// Update handles PUT /categories/{category_id}
// @Summary      Update category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int                            true  "Category ID"
// @Param        payload      body      service.UpdateCategoryRequest  true  "Fields"
// @Success      200          {object}  response.Envelope{data=service.CategoryResponse}
// @Failure      401          {object}  response.Envelope
// @Failure      404          {object}  response.Envelope
// @Router       /categories/{category_id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateCategoryRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria atualizada com sucesso", category)
}

// Deactivate handles DELETE /categories/{category_id}
// @Summary      Deactivate category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope{data=service.CategoryResponse}
// @Router       /categories/{category_id} [delete]
func (h *CategoryHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	category, err := h.categoryService.Deactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria inativada com sucesso", category)
}

// HardDelete handles DELETE /categories/{category_id}/hard
// @Summary      Delete category permanently
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope
// @Router       /categories/{category_id}/hard [delete]
func (h *CategoryHandler) HardDelete(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.categoryService.HardDelete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria deletada permanentemente", nil)
}

// Reactivate handles PATCH /categories/{category_id}/reactivate
// @Summary      Reactivate category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope{data=service.CategoryResponse}
// @Router       /categories/{category_id}/reactivate [patch]
func (h *CategoryHandler) Reactivate(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	category, err := h.categoryService.Reactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categoria reativada com sucesso", category)
}

// Duplicate handles POST /categories/{category_id}/duplicate
// @Summary      Duplicate category
// @Description  The copy is appended after the last category of the target restaurant.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int                               true   "Category ID"
// @Param        payload      body      service.DuplicateCategoryRequest  false  "Overrides"
// @Success      201          {object}  response.Envelope{data=service.CategoryResponse}
// @Router       /categories/{category_id}/duplicate [post]
func (h *CategoryHandler) Duplicate(c *gin.Context) {
	id, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.DuplicateCategoryRequest
	if c.Request.ContentLength > 0 {
		if err := validator.BindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
	}

	category, err := h.categoryService.Duplicate(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Categoria duplicada com sucesso", category.ID, category)
}

// Reorder handles PUT /restaurants/{restaurant_id}/categories/reorder
// @Summary      Reorder categories
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                               true  "Restaurant ID"
// @Param        payload        body      service.ReorderCategoriesRequest  true  "New positions"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/categories/reorder [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.ReorderCategoriesRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	categories, err := h.categoryService.Reorder(c.Request.Context(), actorOf(c), restaurantID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categorias reordenadas com sucesso", categories)
}

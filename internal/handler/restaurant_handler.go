package handler

import (
	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type RestaurantHandler struct {
	restaurantService service.RestaurantService
	auth              *middleware.Auth
}

func NewRestaurantHandler(restaurantService service.RestaurantService, auth *middleware.Auth) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService, auth: auth}
}

// RegisterRoutes binds /restaurants. Child resources mount themselves on
// /restaurants/:restaurant_id through their RegisterRestaurantRoutes.
func (h *RestaurantHandler) RegisterRoutes(router *gin.RouterGroup) {
	restaurants := router.Group("/restaurants")
	{
		restaurants.GET("/stats", h.Stats)
		restaurants.GET("/search", h.List)
		restaurants.GET("/city/:city", h.ListByCity)
		restaurants.GET("/uuid/:uuid", h.GetByUUID)
		restaurants.GET("", h.List)
		restaurants.GET("/:restaurant_id", h.GetByID)

		restaurants.POST("", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.Create)
		restaurants.PUT("/:restaurant_id", h.auth.Authenticate(), middleware.RequireRestaurantAccess("restaurant_id"), h.Update)
		restaurants.DELETE("/:restaurant_id", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.Deactivate)
		restaurants.DELETE("/:restaurant_id/hard", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.HardDelete)
		restaurants.PATCH("/:restaurant_id/reactivate", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.Reactivate)
	}
}

// List handles GET /restaurants and GET /restaurants/search
// @Summary      List restaurants
// @Tags         restaurants
// @Produce      json
// @Param        page        query     int     false  "Page"
// @Param        limit       query     int     false  "Page size"
// @Param        is_active   query     bool    false  "Active flag"
// @Param        city        query     string  false  "City"
// @Param        search      query     string  false  "Name or description"
// @Param        sort_by     query     string  false  "name, city, created_at, updated_at"
// @Param        sort_order  query     string  false  "asc or desc"
// @Success      200         {object}  response.Envelope
// @Failure      422         {object}  response.Envelope
// @Router       /restaurants [get]
func (h *RestaurantHandler) List(c *gin.Context) {
	h.list(c, "")
}

// ListByCity handles GET /restaurants/city/{city}
// @Summary      Restaurants of a city
// @Tags         restaurants
// @Produce      json
// @Param        city  path      string  true  "City"
// @Success      200   {object}  response.Envelope
// @Router       /restaurants/city/{city} [get]
func (h *RestaurantHandler) ListByCity(c *gin.Context) {
	h.list(c, c.Param("city"))
}

func (h *RestaurantHandler) list(c *gin.Context, city string) {
	var q service.RestaurantListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if city != "" {
		q.City = city
	}

	result, err := h.restaurantService.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, "Restaurantes listados com sucesso", "restaurants", result)
}

// Stats handles GET /restaurants/stats
// @Summary      Restaurant counts
// @Tags         restaurants
// @Produce      json
// @Success      200  {object}  response.Envelope{data=repository.ActiveCounts}
// @Router       /restaurants/stats [get]
func (h *RestaurantHandler) Stats(c *gin.Context) {
	stats, err := h.restaurantService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Estatísticas obtidas com sucesso", stats)
}

// GetByUUID handles GET /restaurants/uuid/{uuid}
// @Summary      Get restaurant by UUID
// @Tags         restaurants
// @Produce      json
// @Param        uuid  path      string  true  "Restaurant UUID"
// @Success      200   {object}  response.Envelope{data=service.RestaurantResponse}
// @Failure      404   {object}  response.Envelope
// @Router       /restaurants/uuid/{uuid} [get]
func (h *RestaurantHandler) GetByUUID(c *gin.Context) {
	id, err := paramUUID(c, "uuid")
	if err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.GetByUUID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante encontrado com sucesso", restaurant)
}

// GetByID handles GET /restaurants/{restaurant_id}
// @Summary      Get restaurant
// @Tags         restaurants
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=service.RestaurantResponse}
// @Failure      404            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id} [get]
func (h *RestaurantHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante encontrado com sucesso", restaurant)
}

// Create handles POST /restaurants
// @Summary      Create restaurant
// @Tags         restaurants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRestaurantRequest  true  "Restaurant"
// @Success      201      {object}  response.Envelope{data=service.RestaurantResponse}
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /restaurants [post]
func (h *RestaurantHandler) Create(c *gin.Context) {
	var req service.CreateRestaurantRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Restaurante criado com sucesso", restaurant.ID, restaurant)
}

// Update handles PUT /restaurants/{restaurant_id}
// @Summary      Update restaurant
// @Tags         restaurants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                              true  "Restaurant ID"
// @Param        payload        body      service.UpdateRestaurantRequest  true  "Fields"
// @Success      200            {object}  response.Envelope{data=service.RestaurantResponse}
// @Failure      401            {object}  response.Envelope
// @Failure      404            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id} [put]
func (h *RestaurantHandler) Update(c *gin.Context) {
	id, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateRestaurantRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante atualizado com sucesso", restaurant)
}

// Deactivate handles DELETE /restaurants/{restaurant_id}
// @Summary      Deactivate restaurant
// @Tags         restaurants
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=service.RestaurantResponse}
// @Router       /restaurants/{restaurant_id} [delete]
func (h *RestaurantHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.Deactivate(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante inativado com sucesso", restaurant)
}

// HardDelete handles DELETE /restaurants/{restaurant_id}/hard
// @Summary      Delete restaurant permanently
// @Tags         restaurants
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/hard [delete]
func (h *RestaurantHandler) HardDelete(c *gin.Context) {
	id, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.restaurantService.HardDelete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante deletado permanentemente", nil)
}

// Reactivate handles PATCH /restaurants/{restaurant_id}/reactivate
// @Summary      Reactivate restaurant
// @Tags         restaurants
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=service.RestaurantResponse}
// @Router       /restaurants/{restaurant_id}/reactivate [patch]
func (h *RestaurantHandler) Reactivate(c *gin.Context) {
	id, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	restaurant, err := h.restaurantService.Reactivate(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Restaurante reativado com sucesso", restaurant)
}

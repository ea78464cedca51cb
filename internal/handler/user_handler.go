package handler

import (
	"net/http"

	"foodway/internal/apperror"
	"foodway/internal/middleware"
	"foodway/internal/model"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	activity    service.ActivityService
	auth        *middleware.Auth
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService, activity service.ActivityService, auth *middleware.Auth) *UserHandler {
	return &UserHandler{userService: userService, activity: activity, auth: auth}
}

// RegisterRoutes binds the /users endpoints
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users", h.auth.Authenticate())
	{
		users.GET("/stats", middleware.RequireSuperAdmin(), h.Stats)
		users.GET("/search", h.Search)
		users.GET("/me", h.GetMe)
		users.PUT("/me", middleware.LogActivity(h.activity, "update_profile", "user"), h.UpdateMe)

		users.GET("", middleware.RequireSuperAdmin(), h.List)
		users.POST("", middleware.RequireUserManagement(), middleware.LogActivity(h.activity, "create_user", "user"), h.Create)

		users.GET("/:id/activities", middleware.RequireSelfOrAdmin(), h.Activities)
		users.GET("/:id", middleware.RequireSelfOrAdmin(), h.GetByID)
		users.HEAD("/:id", middleware.RequireSelfOrAdmin(), h.Exists)
		users.PUT("/:id", middleware.RequireSelfOrAdmin(), middleware.LogActivity(h.activity, "update_user", "user"), h.Update)
		users.DELETE("/:id", middleware.RequireUserManagement(), middleware.LogActivity(h.activity, "deactivate_user", "user"), h.Deactivate)
		users.PATCH("/:id/reactivate", middleware.RequireUserManagement(), middleware.LogActivity(h.activity, "reactivate_user", "user"), h.Reactivate)
	}
}

// RegisterRestaurantRoutes binds /restaurants/:restaurant_id/users
func (h *UserHandler) RegisterRestaurantRoutes(restaurant *gin.RouterGroup) {
	users := restaurant.Group("/users", h.auth.Authenticate())
	{
		users.GET("", middleware.RequireRestaurantAccess("restaurant_id"), h.ListByRestaurant)
		users.POST("", middleware.RequireUserManagement(), middleware.LogActivity(h.activity, "create_restaurant_user", "user"), h.CreateForRestaurant)
	}
}

// List handles GET /users
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page"
// @Param        limit       query     int     false  "Page size"
// @Param        role        query     string  false  "super_admin or restaurant_user"
// @Param        restaurant_id  query  int     false  "Restaurant"
// @Param        is_active   query     bool    false  "Active flag"
// @Param        search      query     string  false  "Name or email"
// @Param        sort_by     query     string  false  "name, email, role, created_at, updated_at, last_login"
// @Param        sort_order  query     string  false  "asc or desc"
// @Success      200         {object}  response.Envelope
// @Failure      401         {object}  response.Envelope
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	h.list(c, nil)
}

// Search handles GET /users/search
// @Summary      Search users
// @Description  Restaurant users only see users of their own restaurant.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email"
// @Success      200     {object}  response.Envelope
// @Router       /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	h.list(c, nil)
}

// ListByRestaurant handles GET /restaurants/{restaurant_id}/users
// @Summary      List users of a restaurant
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Failure      401            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/users [get]
func (h *UserHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, &restaurantID)
}

func (h *UserHandler) list(c *gin.Context, restaurantID *uint) {
	var q service.UserListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.userService.List(c.Request.Context(), actorOf(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, "Usuários listados com sucesso", "users", result)
}

// Stats handles GET /users/stats
// @Summary      User statistics
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=repository.UserStats}
// @Router       /users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Estatísticas obtidas com sucesso", stats)
}

// GetMe handles GET /users/me
// @Summary      Own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=service.UserResponse}
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Perfil obtido com sucesso", user)
}

// UpdateMe handles PUT /users/me
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  response.Envelope{data=service.UserResponse}
// @Failure      409      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Perfil atualizado com sucesso", user)
}

// Activities handles GET /users/{id}/activities
// @Summary      Activity log of a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int  true   "User ID"
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Envelope
// @Router       /users/{id}/activities [get]
func (h *UserHandler) Activities(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var q service.ListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.activity.ListByUser(c.Request.Context(), id, q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, "Atividades listadas com sucesso", "activities", result)
}

// GetByID handles GET /users/{id}
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Envelope{data=service.UserResponse}
// @Failure      404  {object}  response.Envelope
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Usuário encontrado com sucesso", user)
}

// Exists handles HEAD /users/{id}
func (h *UserHandler) Exists(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	exists, err := h.userService.Exists(c.Request.Context(), id)
	switch {
	case err != nil:
		c.Status(apperror.StatusCode(err))
	case !exists:
		c.Status(http.StatusNotFound)
	default:
		c.Status(http.StatusOK)
	}
}

// Create handles POST /users
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "User"
// @Success      201      {object}  response.Envelope{data=service.UserResponse}
// @Failure      409      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Usuário criado com sucesso", user.ID, user)
}

// restaurantUserRequest is the payload of POST /restaurants/:restaurant_id/users;
// role and restaurant come from the route.
type restaurantUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// CreateForRestaurant handles POST /restaurants/{restaurant_id}/users
// @Summary      Create restaurant user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                    true  "Restaurant ID"
// @Param        payload        body      restaurantUserRequest  true  "User"
// @Success      201            {object}  response.Envelope{data=service.UserResponse}
// @Failure      409            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/users [post]
func (h *UserHandler) CreateForRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req restaurantUserRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), actorOf(c), service.CreateUserRequest{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         model.RoleRestaurantUser,
		RestaurantID: &restaurantID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Usuário criado com sucesso para o restaurante", user.ID, user)
}

// Update handles PUT /users/{id}
// @Summary      Update user
// @Description  Restaurant users cannot change role, restaurant or active flag.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Fields"
// @Success      200      {object}  response.Envelope{data=service.UserResponse}
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateUserRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Usuário atualizado com sucesso", user)
}

// Deactivate handles DELETE /users/{id}
// @Summary      Deactivate user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Envelope{data=service.UserResponse}
// @Failure      422  {object}  response.Envelope
// @Router       /users/{id} [delete]
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.Deactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Usuário inativado com sucesso", user)
}

// Reactivate handles PATCH /users/{id}/reactivate
// @Summary      Reactivate user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Envelope{data=service.UserResponse}
// @Router       /users/{id}/reactivate [patch]
func (h *UserHandler) Reactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.Reactivate(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Usuário reativado com sucesso", user)
}

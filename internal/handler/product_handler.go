package handler

import (
	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
	auth           *middleware.Auth
}

func NewProductHandler(productService service.ProductService, auth *middleware.Auth) *ProductHandler {
	return &ProductHandler{productService: productService, auth: auth}
}

type promotionsQuery struct {
	service.ListQuery
	RestaurantID *uint `form:"restaurant_id" binding:"omitempty,min=1"`
}

// RegisterRoutes binds /products. Reads are public.
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("/promotions", h.Promotions)
		products.GET("/stats", h.Stats)
		products.GET("/search", h.List)
		products.GET("/uuid/:uuid", h.GetByUUID)
		products.GET("", h.List)
		products.GET("/:id", h.GetByID)

		products.POST("", h.auth.Authenticate(), h.Create)
		products.PUT("/:id", h.auth.Authenticate(), h.Update)
		products.DELETE("/:id", h.auth.Authenticate(), h.Deactivate)
		products.DELETE("/:id/hard", h.auth.Authenticate(), middleware.RequireSuperAdmin(), h.HardDelete)
		products.PATCH("/:id/reactivate", h.auth.Authenticate(), h.Reactivate)
		products.PATCH("/:id/promotion", h.auth.Authenticate(), h.SetPromotion)
		products.POST("/:id/duplicate", h.auth.Authenticate(), h.Duplicate)
		products.PATCH("/:id/move", h.auth.Authenticate(), h.Move)
	}
}

// RegisterCategoryRoutes binds /categories/:category_id/products
func (h *ProductHandler) RegisterCategoryRoutes(category *gin.RouterGroup) {
	products := category.Group("/products")
	{
		products.GET("/stats", h.StatsByCategory)
		products.GET("", h.ListByCategory)
		products.PUT("/reorder", h.auth.Authenticate(), h.Reorder)
		products.POST("", h.auth.Authenticate(), h.CreateForCategory)
	}
}

// RegisterRestaurantRoutes binds /restaurants/:restaurant_id/products
func (h *ProductHandler) RegisterRestaurantRoutes(restaurant *gin.RouterGroup) {
	products := restaurant.Group("/products")
	{
		products.GET("/promotions", h.PromotionsByRestaurant)
		products.GET("/stats", h.StatsByRestaurant)
		products.GET("", h.ListByRestaurant)
	}
}

// List handles GET /products and GET /products/search
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        category_id      query     int     false  "Category"
// @Param        restaurant_id    query     int     false  "Restaurant"
// @Param        is_available     query     bool    false  "Availability"
// @Param        is_on_promotion  query     bool    false  "Promotion flag"
// @Param        min_price        query     number  false  "Minimum current price"
// @Param        max_price        query     number  false  "Maximum current price"
// @Param        search           query     string  false  "Name or description"
// @Param        sort_by          query     string  false  "name, current_price, regular_price, sort_order, created_at, updated_at"
// @Param        sort_order       query     string  false  "asc or desc"
// @Success      200              {object}  response.Envelope
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	h.list(c, nil, nil, "Produtos listados com sucesso")
}

// ListByCategory handles GET /categories/{category_id}/products
// @Summary      Products of a category
// @Tags         products
// @Produce      json
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope
// @Router       /categories/{category_id}/products [get]
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, &categoryID, nil, "Produtos da categoria listados com sucesso")
}

// ListByRestaurant handles GET /restaurants/{restaurant_id}/products
// @Summary      Products of a restaurant
// @Tags         products
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/products [get]
func (h *ProductHandler) ListByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, nil, &restaurantID, "Produtos do restaurante listados com sucesso")
}

func (h *ProductHandler) list(c *gin.Context, categoryID, restaurantID *uint, message string) {
	var q service.ProductListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if categoryID != nil {
		q.CategoryID = categoryID
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.productService.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, message, "products", result)
}

// Promotions handles GET /products/promotions
// @Summary      Products on promotion
// @Tags         products
// @Produce      json
// @Param        restaurant_id  query     int  false  "Restaurant"
// @Success      200            {object}  response.Envelope
// @Router       /products/promotions [get]
func (h *ProductHandler) Promotions(c *gin.Context) {
	h.promotions(c, nil, "Produtos em promoção listados com sucesso")
}

// PromotionsByRestaurant handles GET /restaurants/{restaurant_id}/products/promotions
// @Summary      Promotions of a restaurant
// @Tags         products
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope
// @Router       /restaurants/{restaurant_id}/products/promotions [get]
func (h *ProductHandler) PromotionsByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.promotions(c, &restaurantID, "Produtos em promoção do restaurante listados com sucesso")
}

func (h *ProductHandler) promotions(c *gin.Context, restaurantID *uint, message string) {
	var q promotionsQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	if restaurantID != nil {
		q.RestaurantID = restaurantID
	}

	result, err := h.productService.Promotions(c.Request.Context(), q.RestaurantID, q.ListQuery)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page(c, message, "products", result)
}

// Stats handles GET /products/stats
// @Summary      Product statistics
// @Tags         products
// @Produce      json
// @Param        category_id    query     int  false  "Category"
// @Param        restaurant_id  query     int  false  "Restaurant"
// @Success      200            {object}  response.Envelope{data=service.ProductStats}
// @Router       /products/stats [get]
func (h *ProductHandler) Stats(c *gin.Context) {
	var q scopeQuery
	if err := validator.BindQuery(c, &q); err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, q.CategoryID, q.RestaurantID, "Estatísticas obtidas com sucesso")
}

// StatsByCategory handles GET /categories/{category_id}/products/stats
// @Summary      Product statistics of a category
// @Tags         products
// @Produce      json
// @Param        category_id  path      int  true  "Category ID"
// @Success      200          {object}  response.Envelope{data=service.ProductStats}
// @Router       /categories/{category_id}/products/stats [get]
func (h *ProductHandler) StatsByCategory(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, &categoryID, nil, "Estatísticas dos produtos da categoria obtidas com sucesso")
}

// StatsByRestaurant handles GET /restaurants/{restaurant_id}/products/stats
// @Summary      Product statistics of a restaurant
// @Tags         products
// @Produce      json
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=service.ProductStats}
// @Router       /restaurants/{restaurant_id}/products/stats [get]
func (h *ProductHandler) StatsByRestaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.stats(c, nil, &restaurantID, "Estatísticas dos produtos do restaurante obtidas com sucesso")
}

func (h *ProductHandler) stats(c *gin.Context, categoryID, restaurantID *uint, message string) {
	stats, err := h.productService.Stats(c.Request.Context(), categoryID, restaurantID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, message, stats)
}

// GetByUUID handles GET /products/uuid/{uuid}
// @Summary      Get product by UUID
// @Tags         products
// @Produce      json
// @Param        uuid  path      string  true  "Product UUID"
// @Success      200   {object}  response.Envelope{data=service.ProductResponse}
// @Failure      404   {object}  response.Envelope
// @Router       /products/uuid/{uuid} [get]
func (h *ProductHandler) GetByUUID(c *gin.Context) {
	id, err := paramUUID(c, "uuid")
	if err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.GetByUUID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto encontrado com sucesso", product)
}

// GetByID handles GET /products/{id}
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Envelope{data=service.ProductResponse}
// @Failure      404  {object}  response.Envelope
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto encontrado com sucesso", product)
}

// Create handles POST /products
// @Summary      Create product
// @Description  current_price defaults to regular_price. A promotion needs current_price below regular_price.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Product"
// @Success      201      {object}  response.Envelope{data=service.ProductResponse}
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

// CreateForCategory handles POST /categories/{category_id}/products
// @Summary      Create product in a category
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int                           true  "Category ID"
// @Param        payload      body      service.CreateProductRequest  true  "Product"
// @Success      201          {object}  response.Envelope{data=service.ProductResponse}
// @Router       /categories/{category_id}/products [post]
func (h *ProductHandler) CreateForCategory(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CreateProductRequest
	if err := validator.BindJSONWith(c, &req, func() { req.CategoryID = categoryID }); err != nil {
		_ = c.Error(err)
		return
	}
	h.create(c, req)
}

func (h *ProductHandler) create(c *gin.Context, req service.CreateProductRequest) {
	product, err := h.productService.Create(c.Request.Context(), actorOf(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Produto criado com sucesso", product.ID, product)
}

// Update handles PUT /products/{id}
// @Summary      Update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                           true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Fields"
// @Success      200      {object}  response.Envelope{data=service.ProductResponse}
// @Failure      422      {object}  response.Envelope
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UpdateProductRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto atualizado com sucesso", product)
}

// Deactivate handles DELETE /products/{id}
// @Summary      Mark product unavailable
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Envelope{data=service.ProductResponse}
// @Router       /products/{id} [delete]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.Deactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto indisponibilizado com sucesso", product)
}

// HardDelete handles DELETE /products/{id}/hard
// @Summary      Delete product permanently
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Envelope
// @Router       /products/{id}/hard [delete]
func (h *ProductHandler) HardDelete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.productService.HardDelete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto deletado permanentemente", nil)
}

// Reactivate handles PATCH /products/{id}/reactivate
// @Summary      Mark product available
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Envelope{data=service.ProductResponse}
// @Router       /products/{id}/reactivate [patch]
func (h *ProductHandler) Reactivate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.Reactivate(c.Request.Context(), actorOf(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto reativado com sucesso", product)
}

// SetPromotion handles PATCH /products/{id}/promotion
// @Summary      Start or end a promotion
// @Description  A null or absent promotion_price ends the promotion.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true   "Product ID"
// @Param        payload  body      service.PromotionRequest  false  "Promotion price"
// @Success      200      {object}  response.Envelope{data=service.ProductResponse}
// @Failure      422      {object}  response.Envelope
// @Router       /products/{id}/promotion [patch]
func (h *ProductHandler) SetPromotion(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.PromotionRequest
	if c.Request.ContentLength > 0 {
		if err := validator.BindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
	}

	product, err := h.productService.SetPromotion(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	message := "Promoção aplicada com sucesso"
	if req.PromotionPrice == nil {
		message = "Promoção removida com sucesso"
	}
	ok(c, message, product)
}

// Duplicate handles POST /products/{id}/duplicate
// @Summary      Duplicate product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                              true   "Product ID"
// @Param        payload  body      service.DuplicateProductRequest  false  "Overrides"
// @Success      201      {object}  response.Envelope{data=service.ProductResponse}
// @Router       /products/{id}/duplicate [post]
func (h *ProductHandler) Duplicate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.DuplicateProductRequest
	if c.Request.ContentLength > 0 {
		if err := validator.BindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
	}

	product, err := h.productService.Duplicate(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	created(c, "Produto duplicado com sucesso", product.ID, product)
}

// Move handles PATCH /products/{id}/move
// @Summary      Move product to another category
// @Description  Both categories must belong to the same restaurant.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Product ID"
// @Param        payload  body      service.MoveProductRequest  true  "Target category"
// @Success      200      {object}  response.Envelope{data=service.ProductResponse}
// @Failure      422      {object}  response.Envelope
// @Router       /products/{id}/move [patch]
func (h *ProductHandler) Move(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.MoveProductRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	product, err := h.productService.Move(c.Request.Context(), actorOf(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produto movido para nova categoria com sucesso", product)
}

// Reorder handles PUT /categories/{category_id}/products/reorder
// @Summary      Reorder products of a category
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  path      int                             true  "Category ID"
// @Param        payload      body      service.ReorderProductsRequest  true  "New positions"
// @Success      200          {object}  response.Envelope
// @Router       /categories/{category_id}/products/reorder [put]
func (h *ProductHandler) Reorder(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.ReorderProductsRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	products, err := h.productService.Reorder(c.Request.Context(), actorOf(c), categoryID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produtos reordenados com sucesso", products)
}

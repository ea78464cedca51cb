package handler

import (
	"net/http"

	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

// MenuHandler serves the public menu. The /menu/restaurant routes and the raw
// views below answer with the mobile client's payloads instead of the envelope.
type MenuHandler struct {
	menuService service.MenuService
}

func NewMenuHandler(menuService service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

func (h *MenuHandler) RegisterRoutes(router *gin.RouterGroup) {
	menu := router.Group("/menu")
	{
		menu.GET("/restaurant/:restaurant_id", h.AppMenu)
		menu.GET("/restaurant/:restaurant_id/item/:product_id", h.Item)

		menu.GET("/:restaurant_id/stats", h.Stats)
		menu.GET("/:restaurant_id/promotions", h.Promotions)
		menu.GET("/:restaurant_id/categories", h.Categories)
		menu.GET("/:restaurant_id/categories/:category_id/products", h.CategoryProducts)
		menu.GET("/:restaurant_id/category/:category_id", h.ByCategory)
		menu.GET("/:restaurant_id/item/:product_id", h.Item)
		menu.GET("/:restaurant_id", h.CompleteMenu)
	}
}

// AppMenu handles GET /menu/restaurant/{restaurant_id}
// @Summary      Menu for the mobile app
// @Description  Active categories with their available products. restaurant_id is a numeric id or a UUID.
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Success      200            {object}  service.CompleteMenu
// @Failure      404            {object}  response.Envelope
// @Router       /menu/restaurant/{restaurant_id} [get]
func (h *MenuHandler) AppMenu(c *gin.Context) {
	h.completeMenu(c, service.MenuOptions{})
}

// CompleteMenu handles GET /menu/{restaurant_id}
// @Summary      Complete menu
// @Tags         menu
// @Produce      json
// @Param        restaurant_id        path      string  true   "Restaurant id or UUID"
// @Param        include_inactive     query     bool    false  "Include inactive categories"
// @Param        include_unavailable  query     bool    false  "Include unavailable products"
// @Param        category_id          query     int     false  "Only this category"
// @Success      200                  {object}  service.CompleteMenu
// @Failure      404                  {object}  response.Envelope
// @Router       /menu/{restaurant_id} [get]
func (h *MenuHandler) CompleteMenu(c *gin.Context) {
	var opts service.MenuOptions
	if err := validator.BindQuery(c, &opts); err != nil {
		_ = c.Error(err)
		return
	}
	h.completeMenu(c, opts)
}

// ByCategory handles GET /menu/{restaurant_id}/category/{category_id}
// @Summary      Menu of one category
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Param        category_id    path      int     true  "Category ID"
// @Success      200            {object}  service.CompleteMenu
// @Router       /menu/{restaurant_id}/category/{category_id} [get]
func (h *MenuHandler) ByCategory(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.completeMenu(c, service.MenuOptions{CategoryID: &categoryID})
}

func (h *MenuHandler) completeMenu(c *gin.Context, opts service.MenuOptions) {
	menu, err := h.menuService.CompleteMenu(c.Request.Context(), c.Param("restaurant_id"), opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// Item handles GET /menu/{restaurant_id}/item/{product_id} and its /menu/restaurant twin
// @Summary      Single menu item
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Param        product_id     path      string  true  "Product id or UUID"
// @Success      200            {object}  service.MenuItem
// @Failure      404            {object}  response.Envelope
// @Router       /menu/{restaurant_id}/item/{product_id} [get]
func (h *MenuHandler) Item(c *gin.Context) {
	item, err := h.menuService.Item(c.Request.Context(), c.Param("restaurant_id"), c.Param("product_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Stats handles GET /menu/{restaurant_id}/stats
// @Summary      Menu statistics
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Success      200            {object}  service.MenuStats
// @Router       /menu/{restaurant_id}/stats [get]
func (h *MenuHandler) Stats(c *gin.Context) {
	stats, err := h.menuService.Stats(c.Request.Context(), c.Param("restaurant_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Promotions handles GET /menu/{restaurant_id}/promotions
// @Summary      Promotions grouped by category
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Success      200            {object}  response.Envelope{data=[]service.PromotionGroup}
// @Router       /menu/{restaurant_id}/promotions [get]
func (h *MenuHandler) Promotions(c *gin.Context) {
	groups, err := h.menuService.Promotions(c.Request.Context(), c.Param("restaurant_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produtos em promoção listados com sucesso", groups)
}

// Categories handles GET /menu/{restaurant_id}/categories
// @Summary      Menu categories with product counts
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Success      200            {object}  response.Envelope{data=service.MenuCategories}
// @Router       /menu/{restaurant_id}/categories [get]
func (h *MenuHandler) Categories(c *gin.Context) {
	categories, err := h.menuService.Categories(c.Request.Context(), c.Param("restaurant_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Categorias do menu listadas com sucesso", categories)
}

// CategoryProducts handles GET /menu/{restaurant_id}/categories/{category_id}/products
// @Summary      Products of a menu category
// @Tags         menu
// @Produce      json
// @Param        restaurant_id  path      string  true  "Restaurant id or UUID"
// @Param        category_id    path      int     true  "Category ID"
// @Success      200            {object}  response.Envelope{data=service.MenuCategoryProducts}
// @Failure      404            {object}  response.Envelope
// @Router       /menu/{restaurant_id}/categories/{category_id}/products [get]
func (h *MenuHandler) CategoryProducts(c *gin.Context) {
	categoryID, err := paramID(c, "category_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	products, err := h.menuService.CategoryProducts(c.Request.Context(), c.Param("restaurant_id"), categoryID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Produtos da categoria listados com sucesso", products)
}

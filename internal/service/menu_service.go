package service

import (
	"context"
	"strconv"
	"strings"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMenuImage replaces missing category and product images in menu payloads.
const DefaultMenuImage = "https://mannauniverse-aybw3.kinsta.app/assets/images/category_default.png"

const (
	msgMenuItemNotFound      = "Item do menu não encontrado"
	msgMenuCategoryNoProduct = "Categoria não encontrada ou sem produtos"
)

// The menu payloads below are consumed by a shipped mobile client; field names are fixed.

type MenuRestaurant struct {
	ID      uint      `json:"id"`
	UUID    uuid.UUID `json:"uuid"`
	Name    string    `json:"name"`
	Logo    string    `json:"logo"`
	Address string    `json:"address"`
	City    string    `json:"city"`
	Phone   string    `json:"phone"`
}

type MenuProduct struct {
	ID            uint      `json:"id"`
	UUID          uuid.UUID `json:"uuid"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	RegularPrice  float64   `json:"regular_price"`
	CurrentPrice  float64   `json:"current_price"`
	IsOnPromotion bool      `json:"is_on_promotion"`
	ImageURL      string    `json:"image_url"`
}

type MenuCategory struct {
	CategoryID   uint          `json:"category_id"`
	UUID         uuid.UUID     `json:"uuid"`
	CategoryName string        `json:"category_name"`
	ImageURL     string        `json:"image_url"`
	Products     []MenuProduct `json:"products"`
}

type CompleteMenu struct {
	Success    bool           `json:"success"`
	Restaurant MenuRestaurant `json:"restaurant"`
	Menu       []MenuCategory `json:"menu"`
}

type MenuItem struct {
	Success    bool           `json:"success"`
	Restaurant MenuRestaurant `json:"restaurant"`
	Category   struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"category"`
	Product MenuProduct `json:"product"`
}

type MenuStats struct {
	Success        bool   `json:"success"`
	RestaurantID   uint   `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Stats          struct {
		TotalCategories int     `json:"total_categories"`
		TotalProducts   int     `json:"total_products"`
		TotalPromotions int     `json:"total_promotions"`
		AveragePrice    float64 `json:"average_price"`
	} `json:"stats"`
}

type PromotionGroup struct {
	CategoryID   uint          `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Products     []MenuProduct `json:"products"`
}

type MenuCategoryCount struct {
	CategoryID    uint      `json:"category_id"`
	UUID          uuid.UUID `json:"uuid"`
	CategoryName  string    `json:"category_name"`
	ImageURL      string    `json:"image_url"`
	ProductsCount int       `json:"products_count"`
}

type MenuCategories struct {
	Restaurant MenuRestaurant      `json:"restaurant"`
	Categories []MenuCategoryCount `json:"categories"`
}

type MenuCategoryProducts struct {
	Restaurant MenuRestaurant `json:"restaurant"`
	Category   struct {
		CategoryID   uint   `json:"category_id"`
		CategoryName string `json:"category_name"`
		ImageURL     string `json:"image_url"`
	} `json:"category"`
	Products []MenuProduct `json:"products"`
}

type MenuOptions struct {
	IncludeInactive    bool  `form:"include_inactive"`
	IncludeUnavailable bool  `form:"include_unavailable"`
	CategoryID         *uint `form:"category_id" binding:"omitempty,min=1"`
}

func imageOrDefault(url string) string {
	if url == "" {
		return DefaultMenuImage
	}
	return url
}

func toMenuRestaurant(r *model.Restaurant) MenuRestaurant {
	return MenuRestaurant{ID: r.ID, UUID: r.UUID, Name: r.Name, Logo: r.Logo, Address: r.Address, City: r.City, Phone: r.Phone}
}

func toMenuProduct(p *model.Product) MenuProduct {
	return MenuProduct{
		ID:            p.ID,
		UUID:          p.UUID,
		Name:          p.Name,
		Description:   p.Description,
		RegularPrice:  p.RegularPrice.InexactFloat64(),
		CurrentPrice:  p.CurrentPrice.InexactFloat64(),
		IsOnPromotion: p.IsOnPromotion,
		ImageURL:      imageOrDefault(p.ImageURL),
	}
}

// IsUUIDIdentifier reports whether a path identifier should be resolved as a UUID.
func IsUUIDIdentifier(identifier string) bool {
	return strings.Contains(identifier, "-")
}

// MenuService assembles the public, read-only menu views of a restaurant.
type MenuService interface {
	CompleteMenu(ctx context.Context, restaurant string, opts MenuOptions) (*CompleteMenu, error)
	Item(ctx context.Context, restaurant, product string) (*MenuItem, error)
	Promotions(ctx context.Context, restaurant string) ([]PromotionGroup, error)
	Stats(ctx context.Context, restaurant string) (*MenuStats, error)
	Categories(ctx context.Context, restaurant string) (*MenuCategories, error)
	CategoryProducts(ctx context.Context, restaurant string, categoryID uint) (*MenuCategoryProducts, error)
}

type menuService struct {
	restaurants repository.RestaurantRepository
	categories  repository.CategoryRepository
	products    repository.ProductRepository
}

func NewMenuService(
	restaurants repository.RestaurantRepository,
	categories repository.CategoryRepository,
	products repository.ProductRepository,
) MenuService {
	return &menuService{restaurants: restaurants, categories: categories, products: products}
}

// restaurant resolves an id or UUID to an active restaurant.
func (s *menuService) restaurant(ctx context.Context, identifier string) (*model.Restaurant, error) {
	var (
		restaurant *model.Restaurant
		err        error
	)
	if IsUUIDIdentifier(identifier) {
		id, perr := uuid.Parse(identifier)
		if perr != nil {
			return nil, apperror.NotFound(msgRestaurantNotFound)
		}
		restaurant, err = s.restaurants.FindByUUID(ctx, id)
	} else {
		id, perr := strconv.ParseUint(identifier, 10, 64)
		if perr != nil {
			return nil, apperror.NotFound(msgRestaurantNotFound)
		}
		restaurant, err = s.restaurants.FindByID(ctx, uint(id))
	}
	if err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	if !restaurant.IsActive {
		return nil, apperror.NotFound(msgRestaurantNotFound)
	}
	return restaurant, nil
}

func (s *menuService) CompleteMenu(ctx context.Context, identifier string, opts MenuOptions) (*CompleteMenu, error) {
	restaurant, err := s.restaurant(ctx, identifier)
	if err != nil {
		return nil, err
	}

	filter := repository.CategoryFilter{RestaurantID: &restaurant.ID}
	if !opts.IncludeInactive {
		filter.IsActive = boolPtr(true)
	}
	categories, _, err := s.categories.List(ctx, filter, repository.Page{}, repository.Sort{Field: "sort_order"})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	if opts.CategoryID != nil {
		categories = filterCategory(categories, *opts.CategoryID)
	}

	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	products, err := s.products.ListByCategories(ctx, ids, !opts.IncludeUnavailable)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	byCategory := make(map[uint][]MenuProduct, len(categories))
	for i := range products {
		byCategory[products[i].CategoryID] = append(byCategory[products[i].CategoryID], toMenuProduct(&products[i]))
	}

	menu := &CompleteMenu{Success: true, Restaurant: toMenuRestaurant(restaurant), Menu: make([]MenuCategory, 0, len(categories))}
	for _, c := range categories {
		items := byCategory[c.ID]
		if items == nil {
			items = []MenuProduct{}
		}
		menu.Menu = append(menu.Menu, MenuCategory{
			CategoryID:   c.ID,
			UUID:         c.UUID,
			CategoryName: c.Name,
			ImageURL:     imageOrDefault(c.ImageURL),
			Products:     items,
		})
	}
	return menu, nil
}

func filterCategory(categories []model.Category, id uint) []model.Category {
	for _, c := range categories {
		if c.ID == id {
			return []model.Category{c}
		}
	}
	return nil
}

func (s *menuService) Item(ctx context.Context, identifier, productIdentifier string) (*MenuItem, error) {
	restaurant, err := s.restaurant(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var product *model.Product
	if IsUUIDIdentifier(productIdentifier) {
		id, perr := uuid.Parse(productIdentifier)
		if perr != nil {
			return nil, apperror.NotFound(msgMenuItemNotFound)
		}
		product, err = s.products.FindByUUID(ctx, id)
	} else {
		id, perr := strconv.ParseUint(productIdentifier, 10, 64)
		if perr != nil {
			return nil, apperror.NotFound(msgMenuItemNotFound)
		}
		product, err = s.products.FindByID(ctx, uint(id))
	}
	if err != nil {
		return nil, apperror.FromDB(err, msgMenuItemNotFound)
	}
	if product.Category == nil || product.Category.RestaurantID != restaurant.ID {
		return nil, apperror.NotFound(msgMenuItemNotFound)
	}

	item := &MenuItem{Success: true, Restaurant: toMenuRestaurant(restaurant), Product: toMenuProduct(product)}
	item.Category.ID = product.Category.ID
	item.Category.Name = product.Category.Name
	return item, nil
}

// Promotions groups available promoted products by category, newest first.
func (s *menuService) Promotions(ctx context.Context, identifier string) ([]PromotionGroup, error) {
	restaurant, err := s.restaurant(ctx, identifier)
	if err != nil {
		return nil, err
	}

	filter := repository.ProductFilter{
		RestaurantID:  &restaurant.ID,
		IsAvailable:   boolPtr(true),
		IsOnPromotion: boolPtr(true),
	}
	products, _, err := s.products.List(ctx, filter, repository.Page{}, repository.Sort{Field: "created_at", Desc: true})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	groups := []PromotionGroup{}
	index := map[uint]int{}
	for i := range products {
		p := &products[i]
		if p.Category == nil {
			continue
		}
		pos, ok := index[p.CategoryID]
		if !ok {
			pos = len(groups)
			index[p.CategoryID] = pos
			groups = append(groups, PromotionGroup{CategoryID: p.Category.ID, CategoryName: p.Category.Name, Products: []MenuProduct{}})
		}
		groups[pos].Products = append(groups[pos].Products, toMenuProduct(p))
	}
	return groups, nil
}

// Stats aggregates active categories and available products in memory.
func (s *menuService) Stats(ctx context.Context, identifier string) (*MenuStats, error) {
	restaurant, err := s.restaurant(ctx, identifier)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.Stats(ctx, &restaurant.ID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	products, err := s.products.ListForStats(ctx, nil, &restaurant.ID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	stats := &MenuStats{Success: true, RestaurantID: restaurant.ID, RestaurantName: restaurant.Name}
	stats.Stats.TotalCategories = int(categories.Active)
	sum := decimal.Zero
	for _, p := range products {
		if !p.IsAvailable {
			continue
		}
		stats.Stats.TotalProducts++
		if p.IsOnPromotion {
			stats.Stats.TotalPromotions++
		}
		sum = sum.Add(p.CurrentPrice)
	}
	if stats.Stats.TotalProducts > 0 {
		avg := sum.Div(decimal.NewFromInt(int64(stats.Stats.TotalProducts))).Round(2)
		stats.Stats.AveragePrice = avg.InexactFloat64()
	}
	return stats, nil
}

func (s *menuService) Categories(ctx context.Context, identifier string) (*MenuCategories, error) {
	menu, err := s.CompleteMenu(ctx, identifier, MenuOptions{})
	if err != nil {
		return nil, err
	}

	out := &MenuCategories{Restaurant: menu.Restaurant, Categories: make([]MenuCategoryCount, 0, len(menu.Menu))}
	for _, c := range menu.Menu {
		out.Categories = append(out.Categories, MenuCategoryCount{
			CategoryID:    c.CategoryID,
			UUID:          c.UUID,
			CategoryName:  c.CategoryName,
			ImageURL:      c.ImageURL,
			ProductsCount: len(c.Products),
		})
	}
	return out, nil
}

func (s *menuService) CategoryProducts(ctx context.Context, identifier string, categoryID uint) (*MenuCategoryProducts, error) {
	menu, err := s.CompleteMenu(ctx, identifier, MenuOptions{CategoryID: &categoryID})
	if err != nil {
		return nil, err
	}
	if len(menu.Menu) == 0 {
		return nil, apperror.NotFound(msgMenuCategoryNoProduct)
	}

	category := menu.Menu[0]
	out := &MenuCategoryProducts{Restaurant: menu.Restaurant, Products: category.Products}
	out.Category.CategoryID = category.CategoryID
	out.Category.CategoryName = category.CategoryName
	out.Category.ImageURL = category.ImageURL
	return out, nil
}

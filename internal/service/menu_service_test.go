package service

import (
	"context"
	"strconv"
	"testing"

	"foodway/internal/apperror"
	"foodway/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menuFixture struct {
	env        *testEnv
	svc        MenuService
	restaurant *model.Restaurant
	pizzas     *model.Category
	drinks     *model.Category
	margherita *model.Product
	juice      *model.Product
}

func newMenuFixture(t *testing.T) *menuFixture {
	t.Helper()
	env := newEnv(t)
	f := &menuFixture{
		env:        env,
		svc:        NewMenuService(env.restaurants, env.categories, env.products),
		restaurant: env.restaurant(t, "Cantina"),
	}
	f.drinks = env.category(t, f.restaurant.ID, "Bebidas", 2)
	f.pizzas = env.category(t, f.restaurant.ID, "Pizzas", 1)
	f.margherita = env.product(t, f.pizzas.ID, "Margherita", "40.00")
	f.juice = env.product(t, f.drinks.ID, "Suco", "10.00")

	hidden := env.product(t, f.pizzas.ID, "Atum", "45.00")
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", hidden.ID).Update("is_available", false).Error)
	closed := env.category(t, f.restaurant.ID, "Sobremesas", 3)
	require.NoError(t, env.db.Model(&model.Category{}).Where("id = ?", closed.ID).Update("is_active", false).Error)
	return f
}

func (f *menuFixture) id() string {
	return strconv.FormatUint(uint64(f.restaurant.ID), 10)
}

func TestMenuService_CompleteMenu(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	menu, err := f.svc.CompleteMenu(ctx, f.id(), MenuOptions{})
	require.NoError(t, err)
	assert.True(t, menu.Success)
	assert.Equal(t, "Cantina", menu.Restaurant.Name)
	require.Len(t, menu.Menu, 2)
	assert.Equal(t, "Pizzas", menu.Menu[0].CategoryName)
	assert.Equal(t, DefaultMenuImage, menu.Menu[0].ImageURL)
	require.Len(t, menu.Menu[0].Products, 1)
	assert.Equal(t, "Margherita", menu.Menu[0].Products[0].Name)
	assert.Equal(t, DefaultMenuImage, menu.Menu[0].Products[0].ImageURL)

	byUUID, err := f.svc.CompleteMenu(ctx, f.restaurant.UUID.String(), MenuOptions{})
	require.NoError(t, err)
	assert.Equal(t, menu.Restaurant.ID, byUUID.Restaurant.ID)

	everything, err := f.svc.CompleteMenu(ctx, f.id(), MenuOptions{IncludeInactive: true, IncludeUnavailable: true})
	require.NoError(t, err)
	require.Len(t, everything.Menu, 3)
	assert.Len(t, everything.Menu[0].Products, 2)
	assert.Empty(t, everything.Menu[2].Products)
}

func TestMenuService_UnknownOrInactiveRestaurant(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	for _, identifier := range []string{"999", "abc", "not-a-uuid"} {
		_, err := f.svc.CompleteMenu(ctx, identifier, MenuOptions{})
		assert.True(t, apperror.Is(err, apperror.KindNotFound), identifier)
	}

	require.NoError(t, f.env.db.Model(&model.Restaurant{}).Where("id = ?", f.restaurant.ID).Update("is_active", false).Error)
	_, err := f.svc.CompleteMenu(ctx, f.id(), MenuOptions{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestMenuService_Item(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	item, err := f.svc.Item(ctx, f.id(), f.margherita.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", item.Category.Name)
	assert.Equal(t, 40.0, item.Product.CurrentPrice)

	other := f.env.restaurant(t, "Outro")
	_, err = f.svc.Item(ctx, strconv.FormatUint(uint64(other.ID), 10), strconv.FormatUint(uint64(f.margherita.ID), 10))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Item do menu não encontrado", appErr.Message)
}

func TestMenuService_PromotionsAndStats(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.db.Model(&model.Product{}).Where("id = ?", f.juice.ID).
		Updates(map[string]any{"is_on_promotion": true, "current_price": "8.00"}).Error)

	groups, err := f.svc.Promotions(ctx, f.id())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Bebidas", groups[0].CategoryName)
	require.Len(t, groups[0].Products, 1)
	assert.Equal(t, 8.0, groups[0].Products[0].CurrentPrice)

	stats, err := f.svc.Stats(ctx, f.id())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stats.TotalCategories)
	assert.Equal(t, 2, stats.Stats.TotalProducts)
	assert.Equal(t, 1, stats.Stats.TotalPromotions)
	assert.Equal(t, 24.0, stats.Stats.AveragePrice)
}

func TestMenuService_Categories(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	cats, err := f.svc.Categories(ctx, f.id())
	require.NoError(t, err)
	require.Len(t, cats.Categories, 2)
	assert.Equal(t, 1, cats.Categories[0].ProductsCount)

	products, err := f.svc.CategoryProducts(ctx, f.id(), f.drinks.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bebidas", products.Category.CategoryName)
	require.Len(t, products.Products, 1)

	_, err = f.svc.CategoryProducts(ctx, f.id(), 999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

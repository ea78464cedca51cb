package service

import (
	"context"
	"testing"

	"foodway/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	env := newEnv(t)
	svc := NewCategoryService(env.categories, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	env.category(t, r.ID, "Entradas", 4)

	created, err := svc.Create(ctx, restaurantUser(r.ID), CreateCategoryRequest{RestaurantID: r.ID, Name: " Pizzas "})
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", created.Name)
	assert.Equal(t, 5, created.SortOrder)
	assert.True(t, created.IsActive)

	hidden, err := svc.Create(ctx, superAdmin, CreateCategoryRequest{RestaurantID: r.ID, Name: "Secreta", SortOrder: ptr(0), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 0, hidden.SortOrder)
	assert.False(t, hidden.IsActive)

	_, err = svc.Create(ctx, restaurantUser(r.ID+1), CreateCategoryRequest{RestaurantID: r.ID, Name: "Bebidas"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Create(ctx, superAdmin, CreateCategoryRequest{RestaurantID: 999, Name: "Bebidas"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Restaurante não encontrado", appErr.Message)
}

func TestCategoryService_ListWithCounts(t *testing.T) {
	env := newEnv(t)
	svc := NewCategoryService(env.categories, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	pizzas := env.category(t, r.ID, "Pizzas", 1)
	env.category(t, r.ID, "Bebidas", 2)
	env.product(t, pizzas.ID, "Margherita", "40.00")
	env.product(t, pizzas.ID, "Calabresa", "42.00")

	result, err := svc.List(ctx, CategoryListQuery{RestaurantID: &r.ID, IncludeProductsCount: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Pizzas", result.Items[0].Name)
	require.NotNil(t, result.Items[0].ProductsCount)
	assert.Equal(t, int64(2), *result.Items[0].ProductsCount)
	assert.Equal(t, int64(0), *result.Items[1].ProductsCount)

	search, err := svc.List(ctx, CategoryListQuery{Search: "BEB"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Nil(t, search.Items[0].ProductsCount)
}

func TestCategoryService_DuplicateReorderStats(t *testing.T) {
	env := newEnv(t)
	svc := NewCategoryService(env.categories, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	pizzas := env.category(t, r.ID, "Pizzas", 1)
	drinks := env.category(t, r.ID, "Bebidas", 2)

	dup, err := svc.Duplicate(ctx, superAdmin, pizzas.ID, DuplicateCategoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Pizzas (Cópia)", dup.Name)
	assert.Equal(t, 3, dup.SortOrder)

	ordered, err := svc.Reorder(ctx, restaurantUser(r.ID), r.ID, ReorderCategoriesRequest{Categories: []SortItem{
		{ID: drinks.ID, SortOrder: 0},
		{ID: pizzas.ID, SortOrder: 5},
	}})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, drinks.ID, ordered[0].ID)
	assert.Equal(t, pizzas.ID, ordered[2].ID)

	// a category of another restaurant aborts the whole reorder
	other := env.category(t, env.restaurant(t, "Outro").ID, "Sobremesas", 1)
	_, err = svc.Reorder(ctx, superAdmin, r.ID, ReorderCategoriesRequest{Categories: []SortItem{
		{ID: drinks.ID, SortOrder: 9},
		{ID: other.ID, SortOrder: 0},
	}})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "Categoria não encontrada", appErr.Message)
	unchanged, err := svc.GetByID(ctx, drinks.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.SortOrder)

	_, err = svc.Deactivate(ctx, superAdmin, dup.ID)
	require.NoError(t, err)
	stats, err := svc.Stats(ctx, &r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)

	require.NoError(t, svc.HardDelete(ctx, dup.ID))
	_, err = svc.GetByID(ctx, dup.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

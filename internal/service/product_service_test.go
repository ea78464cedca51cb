package service

import (
	"context"
	"testing"

	"foodway/internal/apperror"
	"foodway/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotionError(t *testing.T) {
	regular := decimal.RequireFromString("20.00")

	assert.Nil(t, PromotionError(false, regular, regular))
	assert.Nil(t, PromotionError(true, regular, decimal.RequireFromString("15.00")))

	fe := PromotionError(true, regular, regular)
	require.NotNil(t, fe)
	assert.Equal(t, "current_price", fe.Field)
	assert.Equal(t, "custom.promotionPrice", fe.Type)
}

func newProductService(env *testEnv) ProductService {
	return NewProductService(env.products, env.categories, env.tx)
}

func TestProductService_Create(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Pizzas", 1)

	first, err := svc.Create(ctx, superAdmin, CreateProductRequest{CategoryID: c.ID, Name: "  Margherita ", RegularPrice: 39.999})
	require.NoError(t, err)
	assert.Equal(t, "Margherita", first.Name)
	assert.Equal(t, 40.0, first.RegularPrice)
	assert.Equal(t, 40.0, first.CurrentPrice)
	assert.True(t, first.IsAvailable)
	assert.Equal(t, 1, first.SortOrder)

	second, err := svc.Create(ctx, restaurantUser(r.ID), CreateProductRequest{
		CategoryID:    c.ID,
		Name:          "Calabresa",
		RegularPrice:  42,
		CurrentPrice:  ptr(35.0),
		IsOnPromotion: true,
		IsAvailable:   ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SortOrder)
	assert.Equal(t, 35.0, second.CurrentPrice)
	assert.False(t, second.IsAvailable)

	_, err = svc.Create(ctx, superAdmin, CreateProductRequest{
		CategoryID:    c.ID,
		Name:          "Portuguesa",
		RegularPrice:  42,
		CurrentPrice:  ptr(42.0),
		IsOnPromotion: true,
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "custom.promotionPrice", appErr.Errors[0].Type)

	_, err = svc.Create(ctx, restaurantUser(r.ID+1), CreateProductRequest{CategoryID: c.ID, Name: "Atum", RegularPrice: 10})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Create(ctx, superAdmin, CreateProductRequest{CategoryID: 999, Name: "Atum", RegularPrice: 10})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestProductService_Update_ChecksMergedPromotion(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Pizzas", 1)
	p := env.product(t, c.ID, "Margherita", "40.00")

	// flagging a promotion without lowering the price breaks the invariant
	_, err := svc.Update(ctx, superAdmin, p.ID, UpdateProductRequest{IsOnPromotion: ptr(true)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	updated, err := svc.Update(ctx, superAdmin, p.ID, UpdateProductRequest{IsOnPromotion: ptr(true), CurrentPrice: ptr(30.0)})
	require.NoError(t, err)
	assert.True(t, updated.IsOnPromotion)
	assert.Equal(t, 30.0, updated.CurrentPrice)
	assert.Equal(t, 40.0, updated.RegularPrice)
}

func TestProductService_SetPromotion(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Pizzas", 1)
	p := env.product(t, c.ID, "Margherita", "40.00")

	_, err := svc.SetPromotion(ctx, superAdmin, p.ID, PromotionRequest{PromotionPrice: ptr(45.0)})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "promotion_price", appErr.Errors[0].Field)

	on, err := svc.SetPromotion(ctx, superAdmin, p.ID, PromotionRequest{PromotionPrice: ptr(29.9)})
	require.NoError(t, err)
	assert.True(t, on.IsOnPromotion)
	assert.Equal(t, 29.9, on.CurrentPrice)

	off, err := svc.SetPromotion(ctx, superAdmin, p.ID, PromotionRequest{})
	require.NoError(t, err)
	assert.False(t, off.IsOnPromotion)
	assert.Equal(t, 40.0, off.CurrentPrice)
}

func TestProductService_DuplicateAndMove(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	pizzas := env.category(t, r.ID, "Pizzas", 1)
	drinks := env.category(t, r.ID, "Bebidas", 2)
	p := env.product(t, pizzas.ID, "Margherita", "40.00")
	env.product(t, drinks.ID, "Suco", "9.00")

	dup, err := svc.Duplicate(ctx, superAdmin, p.ID, DuplicateProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Margherita (Cópia)", dup.Name)
	assert.NotEqual(t, p.ID, dup.ID)
	assert.Equal(t, 40.0, dup.CurrentPrice)

	moved, err := svc.Move(ctx, superAdmin, p.ID, MoveProductRequest{CategoryID: drinks.ID})
	require.NoError(t, err)
	assert.Equal(t, drinks.ID, moved.CategoryID)
	assert.Equal(t, 1, moved.SortOrder)

	other := env.restaurant(t, "Outro")
	foreign := env.category(t, other.ID, "Massas", 1)
	_, err = svc.Move(ctx, superAdmin, p.ID, MoveProductRequest{CategoryID: foreign.ID})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Categoria de destino deve pertencer ao mesmo restaurante", appErr.Message)
}

func TestProductService_Stats(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Pizzas", 1)

	env.product(t, c.ID, "Margherita", "40.00")
	promo := env.product(t, c.ID, "Calabresa", "30.00")
	off := env.product(t, c.ID, "Atum", "50.00")
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", promo.ID).
		Updates(map[string]any{"is_on_promotion": true, "current_price": "20.00"}).Error)
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", off.ID).Update("is_available", false).Error)

	stats, err := svc.Stats(ctx, nil, &r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Available)
	assert.Equal(t, 1, stats.Unavailable)
	assert.Equal(t, 1, stats.OnPromotion)
	assert.Equal(t, 36.67, stats.AveragePrice)

	empty, err := svc.Stats(ctx, ptr(uint(999)), nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.AveragePrice)
}

func TestProductService_Reorder(t *testing.T) {
	env := newEnv(t)
	svc := newProductService(env)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Pizzas", 1)
	a := env.product(t, c.ID, "A", "10.00")
	b := env.product(t, c.ID, "B", "10.00")

	items, err := svc.Reorder(ctx, superAdmin, c.ID, ReorderProductsRequest{Products: []SortItem{
		{ID: a.ID, SortOrder: 2},
		{ID: b.ID, SortOrder: 1},
	}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	drinks := env.category(t, r.ID, "Bebidas", 2)
	juice := env.product(t, drinks.ID, "Suco", "8.00")
	_, err = svc.Reorder(ctx, superAdmin, c.ID, ReorderProductsRequest{Products: []SortItem{
		{ID: a.ID, SortOrder: 0},
		{ID: juice.ID, SortOrder: 3},
	}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.EqualError(t, err, "Produto não encontrado")

	items, err = svc.Reorder(ctx, superAdmin, c.ID, ReorderProductsRequest{})
	require.NoError(t, err)
	assert.Equal(t, a.ID, items[1].ID)
}

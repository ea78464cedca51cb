package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{model.OrderStatusPending, model.OrderStatusConfirmed, true},
		{model.OrderStatusPending, model.OrderStatusCancelled, true},
		{model.OrderStatusPending, model.OrderStatusPreparing, false},
		{model.OrderStatusConfirmed, model.OrderStatusPreparing, true},
		{model.OrderStatusConfirmed, model.OrderStatusReady, false},
		{model.OrderStatusPreparing, model.OrderStatusReady, true},
		{model.OrderStatusReady, model.OrderStatusDelivered, true},
		{model.OrderStatusReady, model.OrderStatusCancelled, true},
		{model.OrderStatusDelivered, model.OrderStatusCancelled, false},
		{model.OrderStatusCancelled, model.OrderStatusPending, false},
		{model.OrderStatusPending, model.OrderStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

type orderFixture struct {
	env        *testEnv
	svc        *orderService
	events     *recordingPublisher
	restaurant *model.Restaurant
	burger     *model.Product
	soda       *model.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	env := newEnv(t)
	events := &recordingPublisher{}
	svc := NewOrderService(env.orders, env.products, env.tables, env.restaurants, env.tx, events, testLog).(*orderService)

	r := env.restaurant(t, "Cantina")
	c := env.category(t, r.ID, "Lanches", 1)
	return &orderFixture{
		env:        env,
		svc:        svc,
		events:     events,
		restaurant: r,
		burger:     env.product(t, c.ID, "X-Burger", "25.90"),
		soda:       env.product(t, c.ID, "Refrigerante", "6.50"),
	}
}

func (f *orderFixture) create(t *testing.T, actor Actor) *OrderResponse {
	t.Helper()
	order, err := f.svc.Create(context.Background(), actor, CreateOrderRequest{
		RestaurantID: f.restaurant.ID,
		Items: []OrderItemRequest{
			{ProductID: f.burger.ID, Quantity: 2},
			{ProductID: f.soda.ID, Quantity: 1, Notes: "sem gelo"},
		},
	})
	require.NoError(t, err)
	return order
}

func TestOrderService_Create(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	order := f.create(t, superAdmin)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 58.3, order.Subtotal)
	assert.Equal(t, 58.3, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 25.9, order.Items[0].UnitPrice)
	assert.Equal(t, 51.8, order.Items[0].TotalPrice)
	assert.Equal(t, "sem gelo", order.Items[1].Notes)

	prefix := fmt.Sprintf("%d-20240115-", f.restaurant.ID)
	assert.Equal(t, prefix+"001", order.OrderNumber)
	second := f.create(t, superAdmin)
	assert.Equal(t, prefix+"002", second.OrderNumber)

	assert.Equal(t, []string{EventOrderCreated, EventOrderCreated}, f.events.names())
}

func TestOrderService_Create_PastThreeDigits(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	prefix := fmt.Sprintf("%d-20240115-", f.restaurant.ID)
	require.NoError(t, f.env.db.Create(&model.Order{
		RestaurantID: f.restaurant.ID,
		OrderNumber:  prefix + "999",
		Status:       model.OrderStatusDelivered,
		Subtotal:     decimal.NewFromInt(10),
		TotalAmount:  decimal.NewFromInt(10),
	}).Error)

	assert.Equal(t, prefix+"1000", f.create(t, superAdmin).OrderNumber)
	assert.Equal(t, prefix+"1001", f.create(t, superAdmin).OrderNumber)
}

func TestPeriodStart_UsesUTCDay(t *testing.T) {
	recife := time.FixedZone("BRT", -3*60*60)
	// 22:30 in Recife is already the next day in UTC
	now := time.Date(2024, 1, 15, 22, 30, 0, 0, recife)

	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), periodStart("today", now))
	assert.Equal(t, time.Date(2024, 1, 9, 1, 30, 0, 0, time.UTC), periodStart("week", now))
}

func TestOrderService_Create_ExplicitUnitPrice(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(context.Background(), superAdmin, CreateOrderRequest{
		RestaurantID: f.restaurant.ID,
		Items:        []OrderItemRequest{{ProductID: f.burger.ID, Quantity: 3, UnitPrice: ptr(20.0)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, order.TotalAmount)
}

func TestOrderService_Create_Rejections(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	t.Run("no items", func(t *testing.T) {
		_, err := f.svc.Create(ctx, superAdmin, CreateOrderRequest{RestaurantID: f.restaurant.ID})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.KindValidation, appErr.Kind)
		assert.Equal(t, "Pedido deve ter pelo menos um item", appErr.Message)
	})

	t.Run("product of another restaurant", func(t *testing.T) {
		other := f.env.restaurant(t, "Outro")
		otherCategory := f.env.category(t, other.ID, "Bebidas", 1)
		foreign := f.env.product(t, otherCategory.ID, "Suco", "8.00")

		_, err := f.svc.Create(ctx, superAdmin, CreateOrderRequest{
			RestaurantID: f.restaurant.ID,
			Items:        []OrderItemRequest{{ProductID: foreign.ID, Quantity: 1}},
		})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.KindValidation, appErr.Kind)
		require.Len(t, appErr.Errors, 1)
		assert.Equal(t, "items[0].product_id", appErr.Errors[0].Field)
	})

	t.Run("table of another restaurant", func(t *testing.T) {
		other := f.env.restaurant(t, "Vizinho")
		table := f.env.table(t, other.ID, 1)

		_, err := f.svc.Create(ctx, superAdmin, CreateOrderRequest{
			RestaurantID: f.restaurant.ID,
			TableID:      &table.ID,
			Items:        []OrderItemRequest{{ProductID: f.burger.ID, Quantity: 1}},
		})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("restaurant user of another restaurant", func(t *testing.T) {
		_, err := f.svc.Create(ctx, restaurantUser(f.restaurant.ID+100), CreateOrderRequest{
			RestaurantID: f.restaurant.ID,
			Items:        []OrderItemRequest{{ProductID: f.burger.ID, Quantity: 1}},
		})
		assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.create(t, superAdmin)

	updated, err := f.svc.UpdateStatus(ctx, superAdmin, order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)
	assert.Nil(t, updated.ReadyAt)

	_, err = f.svc.UpdateStatus(ctx, superAdmin, order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusDelivered})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "Transição de status inválida", appErr.Message)

	for _, status := range []string{model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered} {
		updated, err = f.svc.UpdateStatus(ctx, superAdmin, order.ID, UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
	}
	assert.NotNil(t, updated.DeliveredAt)

	// delivered is terminal
	_, err = f.svc.UpdateStatus(ctx, superAdmin, order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Contains(t, f.events.names(), EventOrderStatusUpdated)
}

func TestOrderService_GetByID_OtherRestaurant(t *testing.T) {
	f := newOrderFixture(t)
	order := f.create(t, superAdmin)

	_, err := f.svc.GetByID(context.Background(), restaurantUser(f.restaurant.ID+1), order.ID)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	got, err := f.svc.GetByID(context.Background(), restaurantUser(f.restaurant.ID), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	_, err = f.svc.GetByID(context.Background(), superAdmin, 9999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestOrderService_Kitchen(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	pending := f.create(t, superAdmin)
	confirmed := f.create(t, superAdmin)
	preparing := f.create(t, superAdmin)
	_, err := f.svc.UpdateStatus(ctx, superAdmin, confirmed.ID, UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed})
	require.NoError(t, err)
	for _, st := range []string{model.OrderStatusConfirmed, model.OrderStatusPreparing} {
		_, err = f.svc.UpdateStatus(ctx, superAdmin, preparing.ID, UpdateOrderStatusRequest{Status: st})
		require.NoError(t, err)
	}

	_, err = f.svc.Kitchen(ctx, superAdmin, nil)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Restaurant ID é obrigatório", appErr.Message)

	// restaurant users are scoped to their own restaurant without passing it
	orders, err := f.svc.Kitchen(ctx, restaurantUser(f.restaurant.ID), nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, confirmed.ID, orders[0].ID)
	assert.Equal(t, preparing.ID, orders[1].ID)
	for _, o := range orders {
		assert.NotEqual(t, pending.ID, o.ID)
	}
}

func TestOrderService_Stats(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	delivered := f.create(t, superAdmin)
	for _, st := range []string{model.OrderStatusConfirmed, model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered} {
		_, err := f.svc.UpdateStatus(ctx, superAdmin, delivered.ID, UpdateOrderStatusRequest{Status: st})
		require.NoError(t, err)
	}
	cancelled := f.create(t, superAdmin)
	_, err := f.svc.UpdateStatus(ctx, superAdmin, cancelled.ID, UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	require.NoError(t, err)
	f.create(t, superAdmin)

	stats, err := f.svc.Stats(ctx, superAdmin, OrderStatsQuery{RestaurantID: &f.restaurant.ID})
	require.NoError(t, err)
	assert.Equal(t, "today", stats.Period)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 58.3, stats.TotalRevenue)

	require.Len(t, stats.TopProducts, 2)
	assert.Equal(t, f.burger.ID, stats.TopProducts[0].ProductID)
	assert.Equal(t, 2, stats.TopProducts[0].TotalQuantity)
	assert.InDelta(t, 51.8, stats.TopProducts[0].TotalValue, 0.001)
}

func TestOrderService_List_StatusFilter(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first := f.create(t, superAdmin)
	f.create(t, superAdmin)
	_, err := f.svc.UpdateStatus(ctx, superAdmin, first.ID, UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	require.NoError(t, err)

	result, err := f.svc.List(ctx, superAdmin, OrderListQuery{Status: "pending, confirmed"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, model.OrderStatusPending, result.Items[0].Status)
	assert.Equal(t, int64(1), result.Pagination.Total)

	result, err = f.svc.List(ctx, restaurantUser(f.restaurant.ID+1), OrderListQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

package service

import (
	"context"
	"testing"

	"foodway/internal/apperror"
	"foodway/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantService_CreateAndGet(t *testing.T) {
	env := newEnv(t)
	svc := NewRestaurantService(env.restaurants)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRestaurantRequest{Name: "  Cantina  ", City: "Recife"})
	require.NoError(t, err)
	assert.Equal(t, "Cantina", created.Name)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, uuid.Nil, created.UUID)

	closed, err := svc.Create(ctx, CreateRestaurantRequest{Name: "Fechado", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	byUUID, err := svc.GetByUUID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUUID.ID)

	_, err = svc.GetByID(ctx, 999)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "Restaurante não encontrado", appErr.Message)
}

func TestRestaurantService_List(t *testing.T) {
	env := newEnv(t)
	svc := NewRestaurantService(env.restaurants)
	ctx := context.Background()
	for _, name := range []string{"Bistrô", "Adega", "Cantina"} {
		_, err := svc.Create(ctx, CreateRestaurantRequest{Name: name, City: "Recife"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, CreateRestaurantRequest{Name: "Dona Flor", City: "Salvador", IsActive: ptr(false)})
	require.NoError(t, err)

	page, err := svc.List(ctx, RestaurantListQuery{ListQuery: ListQuery{Limit: 2, SortBy: "name", SortOrder: "asc"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Adega", page.Items[0].Name)
	assert.Equal(t, int64(4), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	active, err := svc.List(ctx, RestaurantListQuery{IsActive: ptr(true), City: "recife"})
	require.NoError(t, err)
	assert.Len(t, active.Items, 3)

	search, err := svc.List(ctx, RestaurantListQuery{Search: "flor"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Salvador", search.Items[0].City)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)
}

func TestRestaurantService_UpdateAndLifecycle(t *testing.T) {
	env := newEnv(t)
	svc := NewRestaurantService(env.restaurants)
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateRestaurantRequest{Name: "Cantina", Phone: "81999990000"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateRestaurantRequest{Name: ptr("Cantina Nova"), City: ptr("Olinda")})
	require.NoError(t, err)
	assert.Equal(t, "Cantina Nova", updated.Name)
	assert.Equal(t, "Olinda", updated.City)
	assert.Equal(t, "81999990000", updated.Phone)

	off, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	on, err := svc.Reactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	_, err = svc.Update(ctx, 999, UpdateRestaurantRequest{Name: ptr("X")})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, svc.HardDelete(ctx, created.ID))
	assert.True(t, apperror.Is(svc.HardDelete(ctx, created.ID), apperror.KindNotFound))
}

func TestActivityService_RecordAndList(t *testing.T) {
	env := newEnv(t)
	svc := NewActivityService(env.activities, testLog)
	ctx := context.Background()
	u := env.user(t, "admin@example.com", "segredo123", model.RoleSuperAdmin, nil)

	svc.Record(ctx, ActivityEntry{UserID: &u.ID, Action: ActionLogin, IP: "10.0.0.1"})
	svc.Record(ctx, ActivityEntry{
		UserID:     &u.ID,
		Action:     ActionOrderStatus,
		EntityType: "order",
		Details:    map[string]any{"status": "preparing"},
	})

	result, err := svc.ListByUser(ctx, u.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Pagination.Total)

	var statusRow *ActivityResponse
	for i := range result.Items {
		if result.Items[i].Action == ActionOrderStatus {
			statusRow = &result.Items[i]
		}
	}
	require.NotNil(t, statusRow)
	assert.Equal(t, "preparing", statusRow.Details["status"])

	other, err := svc.ListByUser(ctx, u.ID+1, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

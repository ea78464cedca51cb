package service

import (
	"context"
	"testing"

	"foodway/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableService_Create(t *testing.T) {
	env := newEnv(t)
	svc := NewTableService(env.tables, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")

	table, err := svc.Create(ctx, restaurantUser(r.ID), CreateTableRequest{RestaurantID: r.ID, TableNumber: 7})
	require.NoError(t, err)
	assert.Equal(t, "Mesa 7", table.Name)
	assert.Equal(t, 4, table.Capacity)
	assert.True(t, table.IsActive)

	_, err = svc.Create(ctx, superAdmin, CreateTableRequest{RestaurantID: r.ID, TableNumber: 7, Name: "Varanda"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, "Mesa 7 já existe neste restaurante", appErr.Message)

	// numbers are unique per restaurant only
	other := env.restaurant(t, "Outro")
	_, err = svc.Create(ctx, superAdmin, CreateTableRequest{RestaurantID: other.ID, TableNumber: 7})
	require.NoError(t, err)

	_, err = svc.Create(ctx, restaurantUser(r.ID), CreateTableRequest{RestaurantID: other.ID, TableNumber: 8})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	inactive, err := svc.Create(ctx, superAdmin, CreateTableRequest{RestaurantID: r.ID, TableNumber: 9, Capacity: ptr(2), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)
	assert.Equal(t, 2, inactive.Capacity)
}

func TestTableService_CreateBatch(t *testing.T) {
	env := newEnv(t)
	svc := NewTableService(env.tables, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	env.table(t, r.ID, 2)

	result, err := svc.CreateBatch(ctx, superAdmin, r.ID, BatchTablesRequest{TableNumbers: []int{3, 2, 1}, Capacity: ptr(6)})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCreated)
	assert.Equal(t, []int{2}, result.Skipped)
	for _, created := range result.Created {
		assert.Equal(t, 6, created.Capacity)
	}

	_, err = svc.CreateBatch(ctx, superAdmin, r.ID, BatchTablesRequest{TableNumbers: []int{1, 2, 3}})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, "Todas as mesas especificadas já existem", appErr.Message)
}

func TestTableService_Generate(t *testing.T) {
	env := newEnv(t)
	svc := NewTableService(env.tables, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	env.table(t, r.ID, 5)

	result, err := svc.Generate(ctx, superAdmin, r.ID, GenerateTablesRequest{StartNumber: 1, EndNumber: 10})
	require.NoError(t, err)
	assert.Equal(t, 9, result.TotalCreated)
	assert.Equal(t, 1, result.TotalSkipped)

	_, err = svc.Generate(ctx, superAdmin, r.ID, GenerateTablesRequest{StartNumber: 10, EndNumber: 1})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "custom.rangeOrder", appErr.Errors[0].Type)

	_, err = svc.Generate(ctx, superAdmin, r.ID, GenerateTablesRequest{StartNumber: 1, EndNumber: 101})
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "custom.rangeTooBig", appErr.Errors[0].Type)
}

func TestRangeError(t *testing.T) {
	assert.Nil(t, RangeError(1, 100))
	assert.NotNil(t, RangeError(1, 101))
	assert.Nil(t, RangeError(50, 50))
}

func TestTableService_UpdateAndActivation(t *testing.T) {
	env := newEnv(t)
	svc := NewTableService(env.tables, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	one := env.table(t, r.ID, 1)
	env.table(t, r.ID, 2)

	_, err := svc.Update(ctx, superAdmin, one.ID, UpdateTableRequest{TableNumber: ptr(2)})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	updated, err := svc.Update(ctx, superAdmin, one.ID, UpdateTableRequest{TableNumber: ptr(3), Location: ptr("Varanda")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TableNumber)
	assert.Equal(t, "Varanda", updated.Location)

	off, err := svc.Deactivate(ctx, restaurantUser(r.ID), one.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	on, err := svc.Reactivate(ctx, restaurantUser(r.ID), one.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	_, err = svc.Deactivate(ctx, restaurantUser(r.ID+1), one.ID)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	require.NoError(t, svc.HardDelete(ctx, one.ID))
	_, err = svc.GetByID(ctx, superAdmin, one.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTableService_GetByNumberAndList(t *testing.T) {
	env := newEnv(t)
	svc := NewTableService(env.tables, env.restaurants, env.tx)
	ctx := context.Background()
	r := env.restaurant(t, "Cantina")
	other := env.restaurant(t, "Outro")
	env.table(t, r.ID, 1)
	env.table(t, r.ID, 2)
	env.table(t, other.ID, 1)

	found, err := svc.GetByNumber(ctx, r.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mesa 2", found.Name)

	_, err = svc.GetByNumber(ctx, r.ID, 42)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	result, err := svc.List(ctx, restaurantUser(r.ID), TableListQuery{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	all, err := svc.List(ctx, superAdmin, TableListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Pagination.Total)
}

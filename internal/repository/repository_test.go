package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodway/internal/model"
	"foodway/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%pizza%", likePattern("  Pizza "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_OFF"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestSearchAny_EscapesWildcards(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRestaurantRepository(db)
	ctx := context.Background()
	for _, name := range []string{"Bar 100%", "Bar 1000", "Cantina"} {
		require.NoError(t, repo.Create(ctx, &model.Restaurant{Name: name, IsActive: true}))
	}

	found, total, err := repo.List(ctx, RestaurantFilter{Search: "100%"}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "Bar 100%", found[0].Name)

	found, _, err = repo.List(ctx, RestaurantFilter{Search: "bar"}, Page{Limit: 1, Offset: 1}, Sort{Field: "name"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bar 1000", found[0].Name)
}

func TestTransactionManager_RollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	tx := NewTransactionManager(db, true)
	repo := NewRestaurantRepository(db)
	ctx := WithIdentity(context.Background(), Identity{UserID: 1, Role: model.RoleSuperAdmin})

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &model.Restaurant{Name: "Efêmero", IsActive: true}); err != nil {
			return err
		}
		// nested calls share the outer transaction
		return tx.RunInTx(txCtx, func(context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)

	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(1), id.UserID)
}

func TestAuthTokenRepository_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAuthTokenRepository(db)
	ctx := context.Background()
	now := time.Now()

	user := &model.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: model.RoleSuperAdmin, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	live := &model.AuthToken{UserID: user.ID, TokenHash: "live", TokenType: model.TokenTypeRefresh, ExpiresAt: now.Add(time.Hour)}
	stale := &model.AuthToken{UserID: user.ID, TokenHash: "stale", TokenType: model.TokenTypeRefresh, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	_, err := repo.FindValid(ctx, "stale", model.TokenTypeRefresh, now)
	assert.Error(t, err)
	found, err := repo.FindValid(ctx, "live", model.TokenTypeRefresh, now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	revoked, err := repo.RevokeByHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked)
	_, err = repo.FindValid(ctx, "live", model.TokenTypeRefresh, now)
	assert.Error(t, err)
}

func TestOrderRepository_LastOrderNumber(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	restaurant := &model.Restaurant{Name: "Cantina", IsActive: true}
	require.NoError(t, db.Create(restaurant).Error)

	last, err := repo.LastOrderNumber(ctx, "1-20240115-")
	require.NoError(t, err)
	assert.Empty(t, last)

	for _, number := range []string{"1-20240115-998", "1-20240115-1000", "1-20240115-999", "1-20240116-001"} {
		require.NoError(t, db.Create(&model.Order{
			RestaurantID: restaurant.ID,
			OrderNumber:  number,
			Status:       model.OrderStatusPending,
			Subtotal:     decimal.NewFromInt(1),
			TotalAmount:  decimal.NewFromInt(1),
		}).Error)
	}

	last, err = repo.LastOrderNumber(ctx, "1-20240115-")
	require.NoError(t, err)
	assert.Equal(t, "1-20240115-1000", last)
}

package repository

import (
	"context"
	"strconv"

	"gorm.io/gorm"
)

type contextKey string

const (
	txKey       contextKey = "gorm_tx"
	identityKey contextKey = "rls_identity"
)

// Identity is the authenticated caller forwarded to the database as
// row-level-security context.
type Identity struct {
	UserID       uint
	Role         string
	RestaurantID *uint
}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db         *gorm.DB
	rlsContext bool
}

// NewTransactionManager returns a TransactionManager. With rlsContext set and a
// Postgres connection, each transaction publishes the caller identity through
// set_config so row-level-security policies can read it.
func NewTransactionManager(db *gorm.DB, rlsContext bool) TransactionManager {
	return &transactionManager{db: db, rlsContext: rlsContext}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	// nested calls join the outer transaction
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.rlsContext && tx.Dialector.Name() == "postgres" {
			if err := applyIdentity(ctx, tx); err != nil {
				return err
			}
		}
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

func applyIdentity(ctx context.Context, tx *gorm.DB) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil
	}

	restaurantID := ""
	if id.RestaurantID != nil {
		restaurantID = strconv.FormatUint(uint64(*id.RestaurantID), 10)
	}

	return tx.Exec(
		"SELECT set_config('app.current_user_id', ?, true), set_config('app.current_user_role', ?, true), set_config('app.current_restaurant_id', ?, true)",
		strconv.FormatUint(uint64(id.UserID), 10), id.Role, restaurantID,
	).Error
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

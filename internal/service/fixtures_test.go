package service

import (
	"fmt"
	"sync"
	"testing"

	"foodway/internal/logger"
	"foodway/internal/model"
	"foodway/internal/repository"
	"foodway/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	tx          repository.TransactionManager
	restaurants repository.RestaurantRepository
	categories  repository.CategoryRepository
	products    repository.ProductRepository
	tables      repository.TableRepository
	orders      repository.OrderRepository
	users       repository.UserRepository
	tokens      repository.AuthTokenRepository
	activities  repository.ActivityRepository
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	return &testEnv{
		db:          db,
		tx:          repository.NewTransactionManager(db, false),
		restaurants: repository.NewRestaurantRepository(db),
		categories:  repository.NewCategoryRepository(db),
		products:    repository.NewProductRepository(db),
		tables:      repository.NewTableRepository(db),
		orders:      repository.NewOrderRepository(db),
		users:       repository.NewUserRepository(db),
		tokens:      repository.NewAuthTokenRepository(db),
		activities:  repository.NewActivityRepository(db),
	}
}

func (e *testEnv) restaurant(t *testing.T, name string) *model.Restaurant {
	t.Helper()
	r := &model.Restaurant{Name: name, City: "São Paulo", IsActive: true}
	require.NoError(t, e.db.Create(r).Error)
	return r
}

func (e *testEnv) category(t *testing.T, restaurantID uint, name string, sortOrder int) *model.Category {
	t.Helper()
	c := &model.Category{RestaurantID: restaurantID, Name: name, SortOrder: sortOrder, IsActive: true}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) product(t *testing.T, categoryID uint, name, regular string) *model.Product {
	t.Helper()
	p := &model.Product{
		CategoryID:   categoryID,
		Name:         name,
		RegularPrice: decimal.RequireFromString(regular),
		CurrentPrice: decimal.RequireFromString(regular),
		IsAvailable:  true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) table(t *testing.T, restaurantID uint, number int) *model.Table {
	t.Helper()
	tb := &model.Table{RestaurantID: restaurantID, TableNumber: number, Name: fmt.Sprintf("Mesa %d", number), Capacity: 4, IsActive: true}
	require.NoError(t, e.db.Create(tb).Error)
	return tb
}

func (e *testEnv) user(t *testing.T, email, password, role string, restaurantID *uint) *model.User {
	t.Helper()
	hashed, err := HashPassword(password)
	require.NoError(t, err)
	u := &model.User{Name: "Operador", Email: email, PasswordHash: hashed, Role: role, RestaurantID: restaurantID, IsActive: true}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

var superAdmin = Actor{UserID: 1, Email: "admin@example.com", Role: model.RoleSuperAdmin}

func restaurantUser(restaurantID uint) Actor {
	return Actor{UserID: 2, Email: "staff@example.com", Role: model.RoleRestaurantUser, RestaurantID: &restaurantID}
}

func ptr[T any](v T) *T { return &v }

// recordingPublisher captures published order events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	restaurantID uint
	event        string
}

func (p *recordingPublisher) Publish(restaurantID uint, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{restaurantID: restaurantID, event: event})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event)
	}
	return out
}

var testLog = logger.Discard()

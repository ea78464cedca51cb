package database

import (
	"time"

	"foodway/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the Postgres connection pool. Driver errors are
// translated to gorm sentinel errors (ErrDuplicatedKey, ErrForeignKeyViolated).
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates every table used by the API.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Restaurant{},
		&model.Category{},
		&model.Product{},
		&model.Table{},
		&model.User{},
		&model.AuthToken{},
		&model.ActivityLog{},
		&model.Order{},
		&model.OrderItem{},
	)
}

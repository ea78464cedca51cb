package database

import (
	"errors"
	"fmt"
	"strings"

	"foodway/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureSuperAdmin creates the first super_admin account when none exists.
// It is a no-op when email or password are empty.
func EnsureSuperAdmin(db *gorm.DB, log logrus.FieldLogger, name, email, password string) error {
	if email == "" || password == "" {
		log.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping super admin bootstrap")
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleSuperAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Name:          name,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:  string(hash),
		Role:          model.RoleSuperAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := db.Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %s already exists but is not a super admin", admin.Email)
		}
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	log.WithField("email", admin.Email).Info("Super admin created")
	return nil
}

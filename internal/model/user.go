package model

import "time"

// Roles
const (
	RoleSuperAdmin     = "super_admin"
	RoleRestaurantUser = "restaurant_user"
)

// User is an operator account. RestaurantID is set only for restaurant users.
type User struct {
	Base
	Name          string      `gorm:"type:varchar(255);not null" json:"name"`
	Email         string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"` // stored lowercase
	PasswordHash  string      `gorm:"type:varchar(255);not null" json:"-"`
	Role          string      `gorm:"type:varchar(50);not null;default:'restaurant_user';index" json:"role"`
	RestaurantID  *uint       `gorm:"index" json:"restaurant_id"`
	Restaurant    *Restaurant `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"restaurant,omitempty"`
	IsActive      bool        `gorm:"not null;default:true;index" json:"is_active"`
	EmailVerified bool        `gorm:"not null;default:false" json:"email_verified"`
	LastLogin     *time.Time  `json:"last_login"`
	CreatedBy     *uint       `json:"created_by"`
}

func (u *User) IsSuperAdmin() bool { return u.Role == RoleSuperAdmin }

// Token types
const (
	TokenTypeRefresh       = "refresh"
	TokenTypeResetPassword = "reset_password"
)

// AuthToken stores the SHA-256 hash of an issued token so it can be revoked.
type AuthToken struct {
	Base
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenHash  string     `gorm:"type:varchar(255);not null;index" json:"-"`
	TokenType  string     `gorm:"type:varchar(50);not null;default:'access'" json:"token_type"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	IsRevoked  bool       `gorm:"not null;default:false" json:"is_revoked"`
	IPAddress  string     `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string     `gorm:"type:text" json:"user_agent"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

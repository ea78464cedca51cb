package model

import "time"

// ActivityLog is an append-only audit row. Details holds serialized JSON.
type ActivityLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       *uint     `gorm:"index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	RestaurantID *uint     `gorm:"index" json:"restaurant_id"`
	Action       string    `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType   string    `gorm:"type:varchar(50)" json:"entity_type"`
	EntityID     *uint     `json:"entity_id"`
	Details      string    `gorm:"type:jsonb" json:"details"`
	IPAddress    string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string    `gorm:"type:text" json:"user_agent"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

package model

import "time"

// Table is a physical table of a restaurant. The number is unique per restaurant.
type Table struct {
	Base
	RestaurantID      uint        `gorm:"not null;uniqueIndex:idx_tables_restaurant_number,priority:1" json:"restaurant_id"`
	Restaurant        *Restaurant `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"restaurant,omitempty"`
	TableNumber       int         `gorm:"not null;uniqueIndex:idx_tables_restaurant_number,priority:2" json:"table_number"`
	Name              string      `gorm:"type:varchar(100)" json:"name"`
	Capacity          int         `gorm:"not null;default:4" json:"capacity"`
	Location          string      `gorm:"type:varchar(255)" json:"location"`
	QRCodeGenerated   bool        `gorm:"column:qr_code_generated;not null;default:false" json:"qr_code_generated"`
	LastQRGeneratedAt *time.Time  `gorm:"column:last_qr_generated_at" json:"last_qr_generated_at"`
	IsActive          bool        `gorm:"not null;default:true;index" json:"is_active"`
}

package model

import "github.com/shopspring/decimal"

// Product is a menu item. CurrentPrice is below RegularPrice whenever IsOnPromotion is set.
type Product struct {
	Base
	CategoryID    uint            `gorm:"not null;index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	RegularPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"regular_price"`
	CurrentPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"current_price"`
	IsOnPromotion bool            `gorm:"not null;default:false;index" json:"is_on_promotion"`
	ImageURL      string          `gorm:"type:varchar(500)" json:"image_url"`
	IsAvailable   bool            `gorm:"not null;default:true;index" json:"is_available"`
	SortOrder     int             `gorm:"not null;default:0" json:"sort_order"`
}

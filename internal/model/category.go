package model

// Category groups products inside one restaurant. SortOrder is scoped to the restaurant.
type Category struct {
	Base
	RestaurantID uint        `gorm:"not null;index" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"restaurant,omitempty"`
	Name         string      `gorm:"type:varchar(255);not null" json:"name"`
	Description  string      `gorm:"type:text" json:"description"`
	ImageURL     string      `gorm:"type:varchar(500)" json:"image_url"`
	SortOrder    int         `gorm:"not null;default:0;index" json:"sort_order"`
	IsActive     bool        `gorm:"not null;default:true;index" json:"is_active"`
	Products     []Product   `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

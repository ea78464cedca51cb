package model

// Restaurant is the root aggregate: it owns categories, tables, users and orders.
type Restaurant struct {
	Base
	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Logo        string `gorm:"type:varchar(500)" json:"logo"`
	Address     string `gorm:"type:text" json:"address"`
	City        string `gorm:"type:varchar(100);index" json:"city"`
	Phone       string `gorm:"type:varchar(20)" json:"phone"`
	Email       string `gorm:"type:varchar(255)" json:"email"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null;default:true;index" json:"is_active"`
}

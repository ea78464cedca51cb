package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

type Order struct {
	Base
	RestaurantID  uint            `gorm:"not null;index" json:"restaurant_id"`
	Restaurant    *Restaurant     `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"restaurant,omitempty"`
	TableID       *uint           `gorm:"index" json:"table_id"`
	Table         *Table          `gorm:"foreignKey:TableID;constraint:OnDelete:SET NULL" json:"table,omitempty"`
	OrderNumber   string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	CustomerName  string          `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string          `gorm:"type:varchar(20)" json:"customer_phone"`
	Notes         string          `gorm:"type:text" json:"notes"`
	ConfirmedAt   *time.Time      `json:"confirmed_at"`
	ReadyAt       *time.Time      `json:"ready_at"`
	DeliveredAt   *time.Time      `json:"delivered_at"`
	CancelledAt   *time.Time      `json:"cancelled_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is one line of an order. TotalPrice is fixed at insert time.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	ProductID  uint            `gorm:"not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

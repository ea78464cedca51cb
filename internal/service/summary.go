package service

import (
	"foodway/internal/model"

	"github.com/google/uuid"
)

// RestaurantSummary is the shallow restaurant join embedded in child resources.
type RestaurantSummary struct {
	ID   uint      `json:"id"`
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
	City string    `json:"city,omitempty"`
}

func toRestaurantSummary(r *model.Restaurant) *RestaurantSummary {
	if r == nil || r.ID == 0 {
		return nil
	}
	return &RestaurantSummary{ID: r.ID, UUID: r.UUID, Name: r.Name, City: r.City}
}

// CategorySummary is the shallow category join embedded in products.
type CategorySummary struct {
	ID           uint      `json:"id"`
	UUID         uuid.UUID `json:"uuid"`
	Name         string    `json:"name"`
	RestaurantID uint      `json:"restaurant_id"`
}

func toCategorySummary(c *model.Category) *CategorySummary {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &CategorySummary{ID: c.ID, UUID: c.UUID, Name: c.Name, RestaurantID: c.RestaurantID}
}

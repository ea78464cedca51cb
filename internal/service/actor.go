package service

import (
	"foodway/internal/model"
	"foodway/internal/repository"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID       uint
	Email        string
	Name         string
	Role         string
	RestaurantID *uint
	IP           string
	UserAgent    string
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == model.RoleSuperAdmin
}

// CanAccessRestaurant reports whether the caller may read or write data of restaurantID.
func (a Actor) CanAccessRestaurant(restaurantID uint) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.RestaurantID != nil && *a.RestaurantID == restaurantID
}

// Identity is the row-level-security view of the actor.
func (a Actor) Identity() repository.Identity {
	return repository.Identity{UserID: a.UserID, Role: a.Role, RestaurantID: a.RestaurantID}
}

// ScopeRestaurant returns the restaurant a listing must be restricted to.
// Restaurant users are always pinned to their own restaurant.
func (a Actor) ScopeRestaurant(requested *uint) *uint {
	if a.IsSuperAdmin() {
		return requested
	}
	return a.RestaurantID
}

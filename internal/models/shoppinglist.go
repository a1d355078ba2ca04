package models

import (
	"time"
)

// ShoppingListItem is one aggregated line of a plan's shopping list.
// Quantity is the sum of line quantity times portion multiplier across
// every meal referencing the ingredient, regardless of day.
type ShoppingListItem struct {
	ID             int     `json:"id,omitempty"`
	PlanID         int     `json:"plan_id,omitempty"`
	IngredientID   int     `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	EstimatedCost  float64 `json:"estimated_cost"`
	HasInPantry    bool    `json:"has_in_pantry"`
}

// ShoppingListResult is the response for a plan's shopping list
type ShoppingListResult struct {
	PlanID    int                 `json:"plan_id"`
	Items     []*ShoppingListItem `json:"items"`
	TotalCost float64             `json:"total_cost"`
}

// PriceOverride is a user's personal price for an ingredient, taking
// precedence over the catalog price in cost estimates
type PriceOverride struct {
	UserID         int       `json:"user_id"`
	IngredientID   int       `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name,omitempty"`
	PricePerUnit   float64   `json:"price_per_unit"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SetPriceOverrideRequest is the request body for setting a price override
type SetPriceOverrideRequest struct {
	IngredientID int     `json:"ingredient_id"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// PantryItem flags an ingredient the user already has at home. Pantry
// status is informational; it never zeroes the estimated cost.
type PantryItem struct {
	UserID         int       `json:"user_id"`
	IngredientID   int       `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

// AddPantryItemRequest is the request body for flagging a pantry item
type AddPantryItemRequest struct {
	IngredientID int `json:"ingredient_id"`
}

package models

import (
	"time"
)

// Meal slots within a plan day
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

// Plan represents a weekly meal plan
type Plan struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	Name            string     `json:"name"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DailyKcalTarget float64    `json:"daily_kcal_target"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PlanMeal assigns a recipe to a day/slot with a portion multiplier
type PlanMeal struct {
	ID                int     `json:"id"`
	PlanID            int     `json:"plan_id"`
	Day               int     `json:"day"`
	Slot              string  `json:"slot"`
	RecipeID          int     `json:"recipe_id"`
	RecipeName        string  `json:"recipe_name,omitempty"`
	PortionMultiplier float64 `json:"portion_multiplier"`
}

// PlanWithMeals bundles a plan with its meals
type PlanWithMeals struct {
	Plan
	Meals []*PlanMeal `json:"meals"`
}

// DaySummary holds macro/cost totals for one plan day
type DaySummary struct {
	Day    int         `json:"day"`
	Totals MacroTotals `json:"totals"`
}

// PlanSummary holds per-day and whole-plan macro/cost totals
type PlanSummary struct {
	PlanID int          `json:"plan_id"`
	Days   []DaySummary `json:"days"`
	Week   MacroTotals  `json:"week"`
}

// CreatePlanRequest is the request body for creating a plan
type CreatePlanRequest struct {
	Name            string     `json:"name"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DailyKcalTarget *float64   `json:"daily_kcal_target,omitempty"`
}

// UpdatePlanRequest is the request body for updating a plan
type UpdatePlanRequest struct {
	Name            *string    `json:"name,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DailyKcalTarget *float64   `json:"daily_kcal_target,omitempty"`
}

// AddMealRequest is the request body for adding a meal to a plan.
// When PortionMultiplier is nil the portion scaler picks one from the
// recipe's base kcal and the day's remaining calorie budget.
type AddMealRequest struct {
	Day               int      `json:"day"`
	Slot              string   `json:"slot"`
	RecipeID          int      `json:"recipe_id"`
	PortionMultiplier *float64 `json:"portion_multiplier,omitempty"`
}

// UpdateMealRequest is the request body for updating a plan meal
type UpdateMealRequest struct {
	Day               *int     `json:"day,omitempty"`
	Slot              *string  `json:"slot,omitempty"`
	RecipeID          *int     `json:"recipe_id,omitempty"`
	PortionMultiplier *float64 `json:"portion_multiplier,omitempty"`
}

// DraftMealsRequest asks the drafting service to propose meals for a plan
type DraftMealsRequest struct {
	Day         int    `json:"day"`
	Preferences string `json:"preferences,omitempty"`
}

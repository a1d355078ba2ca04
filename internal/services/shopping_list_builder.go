package services

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
)

// MealUsage is one meal's contribution to a shopping list: the recipe's
// ingredient lines and the meal's portion multiplier.
type MealUsage struct {
	Lines             []*models.RecipeIngredient
	PortionMultiplier float64
}

// UnitConflictError reports two recipe lines for the same ingredient with
// different unit strings. Mixed units are never silently summed; the
// conflict is surfaced so the recipes can be fixed.
type UnitConflictError struct {
	IngredientID    int
	FirstUnit       string
	ConflictingUnit string
}

func (e *UnitConflictError) Error() string {
	return fmt.Sprintf("unit conflict for ingredient %d: %q vs %q",
		e.IngredientID, e.FirstUnit, e.ConflictingUnit)
}

// ShoppingListBuilder rolls per-meal ingredient usage up into one
// deduplicated line per ingredient, with price-override and pantry
// awareness. It is a pure function of its inputs; callers snapshot plan
// data before invoking it, and rebuilding from the same state yields the
// same line set.
type ShoppingListBuilder struct {
	log *zap.Logger
}

// NewShoppingListBuilder creates a shopping list builder
func NewShoppingListBuilder(log *zap.Logger) *ShoppingListBuilder {
	return &ShoppingListBuilder{log: log}
}

// Build aggregates every meal's lines into one ShoppingListItem per
// distinct ingredient. Quantities accumulate as line quantity times the
// meal's portion multiplier; the unit string carries forward from the first
// occurrence and a differing later unit is a UnitConflictError. Effective
// price is the user's override when present, else the catalog price.
// Output is sorted by ingredient id, so totals never depend on meal order.
func (b *ShoppingListBuilder) Build(
	meals []MealUsage,
	ingredients map[int]*models.Ingredient,
	priceOverrides map[int]float64,
	pantry map[int]bool,
) ([]*models.ShoppingListItem, error) {
	type running struct {
		quantity float64
		unit     string
	}
	totals := make(map[int]*running)

	for _, meal := range meals {
		for _, line := range meal.Lines {
			effective := line.Quantity * meal.PortionMultiplier
			acc, ok := totals[line.IngredientID]
			if !ok {
				totals[line.IngredientID] = &running{quantity: effective, unit: line.Unit}
				continue
			}
			if acc.unit != line.Unit {
				conflict := &UnitConflictError{
					IngredientID:    line.IngredientID,
					FirstUnit:       acc.unit,
					ConflictingUnit: line.Unit,
				}
				b.log.Warn("shopping list unit conflict",
					zap.Int("ingredient_id", line.IngredientID),
					zap.String("first_unit", acc.unit),
					zap.String("conflicting_unit", line.Unit))
				return nil, conflict
			}
			acc.quantity += effective
		}
	}

	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	items := make([]*models.ShoppingListItem, 0, len(ids))
	for _, id := range ids {
		acc := totals[id]
		item := &models.ShoppingListItem{
			IngredientID: id,
			Quantity:     acc.quantity,
			Unit:         acc.unit,
			HasInPantry:  pantry[id],
		}

		ing := ingredients[id]
		unitType := models.UnitUnspecified
		var catalogPrice *float64
		if ing != nil {
			item.IngredientName = ing.Name
			unitType = ing.UnitType
			catalogPrice = ing.PricePerUnit
		}
		if override, ok := priceOverrides[id]; ok {
			catalogPrice = &override
		}
		item.EstimatedCost = EstimateCost(acc.quantity, unitType, catalogPrice)

		items = append(items, item)
	}
	return items, nil
}

// TotalCost sums the estimated cost of all lines
func TotalCost(items []*models.ShoppingListItem) float64 {
	var total float64
	for _, item := range items {
		total += item.EstimatedCost
	}
	return total
}

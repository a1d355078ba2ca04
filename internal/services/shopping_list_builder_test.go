package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
)

func line(ingredientID int, qty float64, unit string) *models.RecipeIngredient {
	return &models.RecipeIngredient{IngredientID: ingredientID, Quantity: qty, Unit: unit}
}

func testIngredients() map[int]*models.Ingredient {
	return map[int]*models.Ingredient{
		1: {ID: 1, Name: "Chicken breast", UnitType: models.UnitPer100g, PricePerUnit: fptr(1.2)},
		2: {ID: 2, Name: "Rice", UnitType: models.UnitPer100g, PricePerUnit: fptr(0.3)},
		3: {ID: 3, Name: "Egg", UnitType: models.UnitPerPiece, PricePerUnit: fptr(0.4)},
	}
}

func TestBuildAggregatesAcrossMeals(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(1, 200, "g"), line(2, 100, "g")}, PortionMultiplier: 1.0},
		{Lines: []*models.RecipeIngredient{line(1, 150, "g"), line(3, 2, "piece")}, PortionMultiplier: 1.5},
	}

	items, err := b.Build(meals, testIngredients(), nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 1, items[0].IngredientID)
	assert.InDelta(t, 425, items[0].Quantity, 1e-9) // 200 + 150*1.5
	assert.Equal(t, "g", items[0].Unit)
	assert.InDelta(t, 5.1, items[0].EstimatedCost, 1e-9) // 4.25 * 1.2

	assert.Equal(t, 2, items[1].IngredientID)
	assert.InDelta(t, 100, items[1].Quantity, 1e-9)

	assert.Equal(t, 3, items[2].IngredientID)
	assert.InDelta(t, 3, items[2].Quantity, 1e-9)
	assert.InDelta(t, 1.2, items[2].EstimatedCost, 1e-9) // per-piece: 3 * 0.4
}

func TestBuildMealOrderCommutes(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	mealA := MealUsage{Lines: []*models.RecipeIngredient{line(1, 200, "g")}, PortionMultiplier: 1.0}
	mealB := MealUsage{Lines: []*models.RecipeIngredient{line(1, 100, "g"), line(2, 50, "g")}, PortionMultiplier: 0.75}

	forward, err := b.Build([]MealUsage{mealA, mealB}, testIngredients(), nil, nil)
	require.NoError(t, err)
	reversed, err := b.Build([]MealUsage{mealB, mealA}, testIngredients(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
}

func TestBuildRebuildIsIdempotent(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(1, 200, "g"), line(3, 4, "piece")}, PortionMultiplier: 1.25},
	}

	first, err := b.Build(meals, testIngredients(), nil, nil)
	require.NoError(t, err)
	second, err := b.Build(meals, testIngredients(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildPriceOverrideWins(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(1, 100, "g")}, PortionMultiplier: 1.0},
	}

	items, err := b.Build(meals, testIngredients(), map[int]float64{1: 2.0}, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 2.0, items[0].EstimatedCost, 1e-9)
}

func TestBuildPantryFlagKeepsCost(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(2, 100, "g")}, PortionMultiplier: 1.0},
	}

	items, err := b.Build(meals, testIngredients(), nil, map[int]bool{2: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].HasInPantry)
	assert.InDelta(t, 0.3, items[0].EstimatedCost, 1e-9)
}

func TestBuildUnitConflict(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(1, 200, "g")}, PortionMultiplier: 1.0},
		{Lines: []*models.RecipeIngredient{line(1, 1, "cup")}, PortionMultiplier: 1.0},
	}

	_, err := b.Build(meals, testIngredients(), nil, nil)
	var conflict *UnitConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.IngredientID)
	assert.Equal(t, "g", conflict.FirstUnit)
	assert.Equal(t, "cup", conflict.ConflictingUnit)
}

func TestBuildUnknownIngredientStillListed(t *testing.T) {
	b := NewShoppingListBuilder(zap.NewNop())
	meals := []MealUsage{
		{Lines: []*models.RecipeIngredient{line(99, 100, "g")}, PortionMultiplier: 1.0},
	}

	items, err := b.Build(meals, testIngredients(), nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 99, items[0].IngredientID)
	assert.Equal(t, 0.0, items[0].EstimatedCost)
}

func TestTotalCost(t *testing.T) {
	items := []*models.ShoppingListItem{
		{EstimatedCost: 1.5},
		{EstimatedCost: 2.25},
	}
	assert.InDelta(t, 3.75, TotalCost(items), 1e-9)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealwise/meal-plan/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestConversionFactor(t *testing.T) {
	assert.Equal(t, 1.5, ConversionFactor(150, models.UnitPer100g))
	assert.Equal(t, 2.5, ConversionFactor(250, models.UnitPerML))
	assert.Equal(t, 3.0, ConversionFactor(3, models.UnitPerPiece))
	assert.Equal(t, 3.0, ConversionFactor(3, models.UnitUnspecified))
	// unrecognized types fall back to the natural-unit rule
	assert.Equal(t, 3.0, ConversionFactor(3, "per_dozen"))
}

func TestComputeLineMacrosPer100g(t *testing.T) {
	ing := &models.Ingredient{
		Name:           "Chicken breast",
		UnitType:       models.UnitPer100g,
		KcalPerUnit:    fptr(165),
		ProteinPerUnit: fptr(31),
		FatPerUnit:     fptr(3.6),
		PricePerUnit:   fptr(1.2),
	}

	totals, err := ComputeLineMacros(ing, 150)
	require.NoError(t, err)
	assert.InDelta(t, 247.5, totals.Kcal, 1e-9)
	assert.InDelta(t, 46.5, totals.Protein, 1e-9)
	assert.InDelta(t, 5.4, totals.Fat, 1e-9)
	assert.InDelta(t, 1.8, totals.Cost, 1e-9)
	// unset carbs count as zero, not unknown
	assert.Equal(t, 0.0, totals.Carbs)
}

func TestComputeLineMacrosPerPiece(t *testing.T) {
	ing := &models.Ingredient{
		Name:        "Egg",
		UnitType:    models.UnitPerPiece,
		KcalPerUnit: fptr(72),
	}

	totals, err := ComputeLineMacros(ing, 3)
	require.NoError(t, err)
	assert.InDelta(t, 216, totals.Kcal, 1e-9)
}

func TestComputeLineMacrosZeroQuantity(t *testing.T) {
	ing := &models.Ingredient{
		Name:        "Chicken breast",
		UnitType:    models.UnitPer100g,
		KcalPerUnit: fptr(165),
	}

	totals, err := ComputeLineMacros(ing, 0)
	require.NoError(t, err)
	assert.Equal(t, models.MacroTotals{}, totals)
}

func TestComputeLineMacrosNegativeQuantity(t *testing.T) {
	ing := &models.Ingredient{Name: "Flour", UnitType: models.UnitPer100g}
	_, err := ComputeLineMacros(ing, -1)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 2.4, EstimateCost(200, models.UnitPer100g, fptr(1.2)), 1e-9)
	assert.InDelta(t, 3.6, EstimateCost(3, models.UnitPerPiece, fptr(1.2)), 1e-9)
	assert.Equal(t, 0.0, EstimateCost(200, models.UnitPer100g, nil))
}

package services

import (
	"errors"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	// ErrNegativeQuantity rejects quantities below zero; zero itself is a
	// valid "no macros" line
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

// ConversionFactor turns a recipe-line quantity into a multiplier for the
// ingredient's per-unit fields. per_100g and per_ml fields are stored per
// 100 units; everything else (per_piece, unspecified, unknown types) is
// already per natural unit.
func ConversionFactor(quantity float64, unitType string) float64 {
	switch unitType {
	case models.UnitPer100g, models.UnitPerML:
		return quantity / 100
	default:
		return quantity
	}
}

// ComputeLineMacros computes the kcal/macro/cost contribution of quantity
// units of ing. Unset per-unit fields count as zero so totals stay
// computable with incomplete catalog data. The same rule runs everywhere
// macros are computed, so recomputation from identical inputs is
// bit-for-bit reproducible.
func ComputeLineMacros(ing *models.Ingredient, quantity float64) (models.MacroTotals, error) {
	if quantity < 0 {
		return models.MacroTotals{}, ErrNegativeQuantity
	}
	factor := ConversionFactor(quantity, ing.UnitType)
	return models.MacroTotals{
		Kcal:    orZero(ing.KcalPerUnit) * factor,
		Protein: orZero(ing.ProteinPerUnit) * factor,
		Carbs:   orZero(ing.CarbsPerUnit) * factor,
		Fat:     orZero(ing.FatPerUnit) * factor,
		Cost:    orZero(ing.PricePerUnit) * factor,
	}, nil
}

// EstimateCost prices quantity units at pricePerUnit under the ingredient's
// unit type. A nil price estimates to zero.
func EstimateCost(quantity float64, unitType string, pricePerUnit *float64) float64 {
	return orZero(pricePerUnit) * ConversionFactor(quantity, unitType)
}

// orZero is the single place where "unset macro field" becomes zero
func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

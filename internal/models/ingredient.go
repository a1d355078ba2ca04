package models

import (
	"time"
)

// Unit types describe the measurement basis of an ingredient's per-unit
// nutrition and price fields.
const (
	UnitPer100g     = "per_100g"
	UnitPerML       = "per_ml"
	UnitPerPiece    = "per_piece"
	UnitUnspecified = "unspecified"
)

// Ingredient represents a catalog ingredient available for matching
type Ingredient struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	SimilarityName string    `json:"similarity_name"`
	UnitType       string    `json:"unit_type"`
	KcalPerUnit    *float64  `json:"kcal_per_unit,omitempty"`
	ProteinPerUnit *float64  `json:"protein_per_unit,omitempty"`
	CarbsPerUnit   *float64  `json:"carbs_per_unit,omitempty"`
	FatPerUnit     *float64  `json:"fat_per_unit,omitempty"`
	PricePerUnit   *float64  `json:"price_per_unit,omitempty"`
	CreatedBy      *int      `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IngredientDraft is the payload for inserting a catalog ingredient.
// Macro and price fields may be nil; they can be back-filled later.
type IngredientDraft struct {
	Name           string
	SimilarityName string
	UnitType       string
	KcalPerUnit    *float64
	ProteinPerUnit *float64
	CarbsPerUnit   *float64
	FatPerUnit     *float64
	PricePerUnit   *float64
	CreatedBy      *int
}

// CreateIngredientRequest is the request body for explicit ingredient creation
type CreateIngredientRequest struct {
	Name           string   `json:"name"`
	UnitType       string   `json:"unit_type,omitempty"`
	KcalPerUnit    *float64 `json:"kcal_per_unit,omitempty"`
	ProteinPerUnit *float64 `json:"protein_per_unit,omitempty"`
	CarbsPerUnit   *float64 `json:"carbs_per_unit,omitempty"`
	FatPerUnit     *float64 `json:"fat_per_unit,omitempty"`
	PricePerUnit   *float64 `json:"price_per_unit,omitempty"`
}

// UpdateIngredientRequest is the request body for updating an ingredient
type UpdateIngredientRequest struct {
	Name           *string  `json:"name,omitempty"`
	UnitType       *string  `json:"unit_type,omitempty"`
	KcalPerUnit    *float64 `json:"kcal_per_unit,omitempty"`
	ProteinPerUnit *float64 `json:"protein_per_unit,omitempty"`
	CarbsPerUnit   *float64 `json:"carbs_per_unit,omitempty"`
	FatPerUnit     *float64 `json:"fat_per_unit,omitempty"`
	PricePerUnit   *float64 `json:"price_per_unit,omitempty"`
}

// IngredientListParams contains parameters for listing ingredients
type IngredientListParams struct {
	Limit  int
	Offset int
	Search string
}

// ResolveIngredientRequest is the request body for name resolution
type ResolveIngredientRequest struct {
	Name string `json:"name"`
}

// ValidUnitType reports whether s is one of the known unit types
func ValidUnitType(s string) bool {
	switch s {
	case UnitPer100g, UnitPerML, UnitPerPiece, UnitUnspecified:
		return true
	}
	return false
}

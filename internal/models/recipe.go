package models

import (
	"time"
)

// Recipe represents a stored recipe
type Recipe struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecipeIngredient is one ingredient line of a recipe. The unit string is
// what the author typed ("g", "ml", "piece"); it is reconciled against the
// ingredient's unit type when macros are computed.
type RecipeIngredient struct {
	ID             int     `json:"id"`
	RecipeID       int     `json:"recipe_id"`
	IngredientID   int     `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
}

// RecipeWithLines bundles a recipe with its ingredient lines and the
// macro/cost totals computed from them
type RecipeWithLines struct {
	Recipe
	Lines  []*RecipeIngredient `json:"lines"`
	Totals MacroTotals         `json:"totals"`
}

// MacroTotals holds kcal/macro/cost contributions. All fields are computable
// even when catalog data is incomplete; unset per-unit fields count as zero.
type MacroTotals struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Cost    float64 `json:"cost"`
}

// Add accumulates o into t
func (t *MacroTotals) Add(o MacroTotals) {
	t.Kcal += o.Kcal
	t.Protein += o.Protein
	t.Carbs += o.Carbs
	t.Fat += o.Fat
	t.Cost += o.Cost
}

// Scale returns t multiplied by factor
func (t MacroTotals) Scale(factor float64) MacroTotals {
	return MacroTotals{
		Kcal:    t.Kcal * factor,
		Protein: t.Protein * factor,
		Carbs:   t.Carbs * factor,
		Fat:     t.Fat * factor,
		Cost:    t.Cost * factor,
	}
}

// RecipeLineRequest is one ingredient line in a create/update request.
// Either IngredientID or Name must be set; free-text names go through the
// resolver. Text is an unstructured line like "2 cups diced tomatoes" and
// is parsed before resolution.
type RecipeLineRequest struct {
	IngredientID *int     `json:"ingredient_id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Text         string   `json:"text,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         string   `json:"unit,omitempty"`
}

// CreateRecipeRequest is the request body for creating a recipe
type CreateRecipeRequest struct {
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	Instructions *string             `json:"instructions,omitempty"`
	Lines        []RecipeLineRequest `json:"lines"`
}

// UpdateRecipeRequest is the request body for updating a recipe.
// A non-nil Lines slice replaces all existing lines.
type UpdateRecipeRequest struct {
	Name         *string             `json:"name,omitempty"`
	Description  *string             `json:"description,omitempty"`
	Instructions *string             `json:"instructions,omitempty"`
	Lines        []RecipeLineRequest `json:"lines,omitempty"`
}

// RecipeListParams contains parameters for listing recipes
type RecipeListParams struct {
	UserID int
	Limit  int
	Offset int
	Search string
}

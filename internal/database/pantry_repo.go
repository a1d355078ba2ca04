package database

import (
	"context"
	"errors"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	ErrPriceOverrideNotFound = errors.New("price override not found")
	ErrPantryItemNotFound    = errors.New("pantry item not found")
)

// GetPriceOverrides returns the user's overrides keyed by ingredient id,
// the form the shopping list builder consumes
func (db *DB) GetPriceOverrides(ctx context.Context, userID int) (map[int]float64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ingredient_id, price_per_unit
		FROM price_overrides
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[int]float64)
	for rows.Next() {
		var ingredientID int
		var price float64
		if err := rows.Scan(&ingredientID, &price); err != nil {
			return nil, err
		}
		overrides[ingredientID] = price
	}
	return overrides, nil
}

// ListPriceOverrides returns the user's overrides with ingredient names
func (db *DB) ListPriceOverrides(ctx context.Context, userID int) ([]*models.PriceOverride, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT po.user_id, po.ingredient_id, i.name, po.price_per_unit, po.updated_at
		FROM price_overrides po
		JOIN ingredients i ON i.id = po.ingredient_id
		WHERE po.user_id = $1
		ORDER BY i.name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []*models.PriceOverride
	for rows.Next() {
		o := &models.PriceOverride{}
		err := rows.Scan(&o.UserID, &o.IngredientID, &o.IngredientName, &o.PricePerUnit, &o.UpdatedAt)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// SetPriceOverride upserts a user's price for an ingredient
func (db *DB) SetPriceOverride(ctx context.Context, userID, ingredientID int, pricePerUnit float64) (*models.PriceOverride, error) {
	o := &models.PriceOverride{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO price_overrides (user_id, ingredient_id, price_per_unit)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, ingredient_id)
		DO UPDATE SET price_per_unit = EXCLUDED.price_per_unit, updated_at = NOW()
		RETURNING user_id, ingredient_id, price_per_unit, updated_at
	`, userID, ingredientID, pricePerUnit).Scan(&o.UserID, &o.IngredientID, &o.PricePerUnit, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DeletePriceOverride removes a user's price for an ingredient
func (db *DB) DeletePriceOverride(ctx context.Context, userID, ingredientID int) error {
	tag, err := db.Pool.Exec(ctx,
		"DELETE FROM price_overrides WHERE user_id = $1 AND ingredient_id = $2",
		userID, ingredientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPriceOverrideNotFound
	}
	return nil
}

// GetPantryFlags returns the set of ingredient ids the user has at home
func (db *DB) GetPantryFlags(ctx context.Context, userID int) (map[int]bool, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT ingredient_id FROM pantry_items WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(map[int]bool)
	for rows.Next() {
		var ingredientID int
		if err := rows.Scan(&ingredientID); err != nil {
			return nil, err
		}
		flags[ingredientID] = true
	}
	return flags, nil
}

// ListPantryItems returns the user's pantry with ingredient names
func (db *DB) ListPantryItems(ctx context.Context, userID int) ([]*models.PantryItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT pi.user_id, pi.ingredient_id, i.name, pi.added_at
		FROM pantry_items pi
		JOIN ingredients i ON i.id = pi.ingredient_id
		WHERE pi.user_id = $1
		ORDER BY i.name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.PantryItem
	for rows.Next() {
		p := &models.PantryItem{}
		err := rows.Scan(&p.UserID, &p.IngredientID, &p.IngredientName, &p.AddedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

// AddPantryItem flags an ingredient as on hand; adding twice is a no-op
func (db *DB) AddPantryItem(ctx context.Context, userID, ingredientID int) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO pantry_items (user_id, ingredient_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, ingredient_id) DO NOTHING
	`, userID, ingredientID)
	return err
}

// RemovePantryItem clears the on-hand flag
func (db *DB) RemovePantryItem(ctx context.Context, userID, ingredientID int) error {
	tag, err := db.Pool.Exec(ctx,
		"DELETE FROM pantry_items WHERE user_id = $1 AND ingredient_id = $2",
		userID, ingredientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPantryItemNotFound
	}
	return nil
}

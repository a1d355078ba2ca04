package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
)

// ListRecipes returns a paginated list of the user's recipes
func (db *DB) ListRecipes(ctx context.Context, params *models.RecipeListParams) ([]*models.Recipe, int, error) {
	whereClauses := []string{"user_id = $1"}
	args := []interface{}{params.UserID}
	argIndex := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	whereClause := "WHERE " + strings.Join(whereClauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM recipes %s", whereClause)
	err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, name, description, instructions, created_at, updated_at
		FROM recipes
		%s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		r := &models.Recipe{}
		err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Instructions, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, r)
	}

	return recipes, total, nil
}

// GetRecipeByID retrieves a recipe owned by the user
func (db *DB) GetRecipeByID(ctx context.Context, id, userID int) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, instructions, created_at, updated_at
		FROM recipes
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Instructions, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecipeLines returns a recipe's ingredient lines with ingredient names
func (db *DB) GetRecipeLines(ctx context.Context, recipeID int) ([]*models.RecipeIngredient, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ri.id, ri.recipe_id, ri.ingredient_id, i.name, ri.quantity, ri.unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.id ASC
	`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.RecipeIngredient
	for rows.Next() {
		line := &models.RecipeIngredient{}
		err := rows.Scan(&line.ID, &line.RecipeID, &line.IngredientID, &line.IngredientName, &line.Quantity, &line.Unit)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GetRecipeLinesBatch returns the lines for several recipes keyed by recipe id
func (db *DB) GetRecipeLinesBatch(ctx context.Context, recipeIDs []int) (map[int][]*models.RecipeIngredient, error) {
	result := make(map[int][]*models.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT ri.id, ri.recipe_id, ri.ingredient_id, i.name, ri.quantity, ri.unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.id
	`, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		line := &models.RecipeIngredient{}
		err := rows.Scan(&line.ID, &line.RecipeID, &line.IngredientID, &line.IngredientName, &line.Quantity, &line.Unit)
		if err != nil {
			return nil, err
		}
		result[line.RecipeID] = append(result[line.RecipeID], line)
	}
	return result, nil
}

// ResolvedLine is one recipe line ready for insertion, after free-text
// names have been resolved to catalog ids
type ResolvedLine struct {
	IngredientID int
	Quantity     float64
	Unit         string
}

// CreateRecipe inserts a recipe and its lines in one transaction
func (db *DB) CreateRecipe(ctx context.Context, userID int, req *models.CreateRecipeRequest, lines []ResolvedLine) (*models.Recipe, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := &models.Recipe{}
	err = tx.QueryRow(ctx, `
		INSERT INTO recipes (user_id, name, description, instructions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, description, instructions, created_at, updated_at
	`, userID, req.Name, req.Description, req.Instructions).Scan(
		&r.ID, &r.UserID, &r.Name, &r.Description, &r.Instructions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit)
			VALUES ($1, $2, $3, $4)
		`, r.ID, line.IngredientID, line.Quantity, line.Unit)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecipe applies a partial update; a non-nil replaceLines replaces all
// ingredient lines in the same transaction
func (db *DB) UpdateRecipe(ctx context.Context, id, userID int, req *models.UpdateRecipeRequest, replaceLines []ResolvedLine) (*models.Recipe, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}
	if req.Instructions != nil {
		setClauses = append(setClauses, fmt.Sprintf("instructions = $%d", argIndex))
		args = append(args, *req.Instructions)
		argIndex++
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE recipes
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, name, description, instructions, created_at, updated_at
	`, strings.Join(setClauses, ", "), argIndex, argIndex+1)
	args = append(args, id, userID)

	r := &models.Recipe{}
	err = tx.QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.UserID, &r.Name, &r.Description, &r.Instructions, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}

	if replaceLines != nil {
		_, err = tx.Exec(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = $1", id)
		if err != nil {
			return nil, err
		}
		for _, line := range replaceLines {
			_, err = tx.Exec(ctx, `
				INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit)
				VALUES ($1, $2, $3, $4)
			`, id, line.IngredientID, line.Quantity, line.Unit)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRecipe removes a recipe owned by the user; lines cascade
func (db *DB) DeleteRecipe(ctx context.Context, id, userID int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM recipes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

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
	ErrIngredientNotFound = errors.New("ingredient not found")
)

const ingredientColumns = `
	id, name, similarity_name, unit_type,
	kcal_per_unit, protein_per_unit, carbs_per_unit, fat_per_unit, price_per_unit,
	created_by, created_at, updated_at`

func scanIngredient(row pgx.Row) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := row.Scan(
		&ing.ID, &ing.Name, &ing.SimilarityName, &ing.UnitType,
		&ing.KcalPerUnit, &ing.ProteinPerUnit, &ing.CarbsPerUnit, &ing.FatPerUnit, &ing.PricePerUnit,
		&ing.CreatedBy, &ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// ListIngredients returns a paginated list of catalog ingredients with
// optional name filtering
func (db *DB) ListIngredients(ctx context.Context, params *models.IngredientListParams) ([]*models.Ingredient, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name ILIKE $%d OR similarity_name ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Get total count
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ingredients %s", whereClause)
	err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ingredients
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, ingredientColumns, whereClause, argIndex, argIndex+1)

	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, 0, err
		}
		ingredients = append(ingredients, ing)
	}

	return ingredients, total, nil
}

// GetIngredientByID retrieves an ingredient by ID
func (db *DB) GetIngredientByID(ctx context.Context, id int) (*models.Ingredient, error) {
	query := fmt.Sprintf("SELECT %s FROM ingredients WHERE id = $1", ingredientColumns)
	ing, err := scanIngredient(db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// GetIngredientsByIDs returns the ingredients for a set of ids, keyed by id.
// Missing ids are simply absent from the map.
func (db *DB) GetIngredientsByIDs(ctx context.Context, ids []int) (map[int]*models.Ingredient, error) {
	result := make(map[int]*models.Ingredient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf("SELECT %s FROM ingredients WHERE id = ANY($1)", ingredientColumns)
	rows, err := db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		result[ing.ID] = ing
	}
	return result, nil
}

// FindIngredientByName retrieves an ingredient by exact display name.
// Returns (nil, nil) when no row matches; the resolver treats absence as a
// normal outcome, not an error.
func (db *DB) FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	query := fmt.Sprintf("SELECT %s FROM ingredients WHERE name = $1", ingredientColumns)
	ing, err := scanIngredient(db.Pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// FindIngredientBySimilarityName retrieves an ingredient by its normalized
// matching name. Returns (nil, nil) when no row matches.
func (db *DB) FindIngredientBySimilarityName(ctx context.Context, similarityName string) (*models.Ingredient, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ingredients
		WHERE similarity_name = $1
		ORDER BY id ASC
		LIMIT 1
	`, ingredientColumns)
	ing, err := scanIngredient(db.Pool.QueryRow(ctx, query, similarityName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// SearchIngredientsContaining returns up to limit ingredients whose name or
// similarity name contains the token, prefix matches first
func (db *DB) SearchIngredientsContaining(ctx context.Context, token string, limit int) ([]*models.Ingredient, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ingredients
		WHERE name ILIKE $1 OR similarity_name ILIKE $1
		ORDER BY similarity_name ILIKE $2 DESC, name ASC
		LIMIT $3
	`, ingredientColumns)

	rows, err := db.Pool.Query(ctx, query, "%"+token+"%", token+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

// CreateIngredient inserts a catalog ingredient. A concurrent insert of the
// same name degrades to returning the existing row, so resolution never
// creates duplicate drafts.
func (db *DB) CreateIngredient(ctx context.Context, draft *models.IngredientDraft) (*models.Ingredient, error) {
	query := fmt.Sprintf(`
		INSERT INTO ingredients (
			name, similarity_name, unit_type,
			kcal_per_unit, protein_per_unit, carbs_per_unit, fat_per_unit, price_per_unit,
			created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING %s
	`, ingredientColumns)

	return scanIngredient(db.Pool.QueryRow(ctx, query,
		draft.Name, draft.SimilarityName, draft.UnitType,
		draft.KcalPerUnit, draft.ProteinPerUnit, draft.CarbsPerUnit, draft.FatPerUnit, draft.PricePerUnit,
		draft.CreatedBy,
	))
}

// UpdateIngredient applies a partial update. similarityName must be the
// normalized form of the new name when the name changes, otherwise empty.
func (db *DB) UpdateIngredient(ctx context.Context, id int, req *models.UpdateIngredientRequest, similarityName string) (*models.Ingredient, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.Name != nil {
		addSet("name", *req.Name)
		addSet("similarity_name", similarityName)
	}
	if req.UnitType != nil {
		addSet("unit_type", *req.UnitType)
	}
	if req.KcalPerUnit != nil {
		addSet("kcal_per_unit", *req.KcalPerUnit)
	}
	if req.ProteinPerUnit != nil {
		addSet("protein_per_unit", *req.ProteinPerUnit)
	}
	if req.CarbsPerUnit != nil {
		addSet("carbs_per_unit", *req.CarbsPerUnit)
	}
	if req.FatPerUnit != nil {
		addSet("fat_per_unit", *req.FatPerUnit)
	}
	if req.PricePerUnit != nil {
		addSet("price_per_unit", *req.PricePerUnit)
	}

	if len(setClauses) == 0 {
		return db.GetIngredientByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf(`
		UPDATE ingredients
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIndex, ingredientColumns)
	args = append(args, id)

	ing, err := scanIngredient(db.Pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// DeleteIngredient removes a catalog ingredient
func (db *DB) DeleteIngredient(ctx context.Context, id int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM ingredients WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIngredientNotFound
	}
	return nil
}

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
	ErrPlanNotFound     = errors.New("plan not found")
	ErrPlanMealNotFound = errors.New("plan meal not found")
)

// ListPlans returns the user's plans, newest first
func (db *DB) ListPlans(ctx context.Context, userID int) ([]*models.Plan, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, name, start_date, daily_kcal_target, created_at, updated_at
		FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		p := &models.Plan{}
		err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.DailyKcalTarget, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// GetPlanByID retrieves a plan owned by the user
func (db *DB) GetPlanByID(ctx context.Context, id, userID int) (*models.Plan, error) {
	p := &models.Plan{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, start_date, daily_kcal_target, created_at, updated_at
		FROM plans
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.DailyKcalTarget, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlan inserts a plan. When the request has no calorie target the
// user's profile target applies, defaulting to 2000.
func (db *DB) CreatePlan(ctx context.Context, userID int, req *models.CreatePlanRequest, dailyKcalTarget float64) (*models.Plan, error) {
	p := &models.Plan{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO plans (user_id, name, start_date, daily_kcal_target)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, start_date, daily_kcal_target, created_at, updated_at
	`, userID, req.Name, req.StartDate, dailyKcalTarget).Scan(
		&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.DailyKcalTarget, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlan applies a partial update to a plan
func (db *DB) UpdatePlan(ctx context.Context, id, userID int, req *models.UpdatePlanRequest) (*models.Plan, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.StartDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("start_date = $%d", argIndex))
		args = append(args, *req.StartDate)
		argIndex++
	}
	if req.DailyKcalTarget != nil {
		setClauses = append(setClauses, fmt.Sprintf("daily_kcal_target = $%d", argIndex))
		args = append(args, *req.DailyKcalTarget)
		argIndex++
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE plans
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, name, start_date, daily_kcal_target, created_at, updated_at
	`, strings.Join(setClauses, ", "), argIndex, argIndex+1)
	args = append(args, id, userID)

	p := &models.Plan{}
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.DailyKcalTarget, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePlan removes a plan owned by the user; meals and list items cascade
func (db *DB) DeletePlan(ctx context.Context, id, userID int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM plans WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// GetPlanMeals returns a plan's meals ordered by day then slot
func (db *DB) GetPlanMeals(ctx context.Context, planID int) ([]*models.PlanMeal, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT pm.id, pm.plan_id, pm.day, pm.slot, pm.recipe_id, r.name, pm.portion_multiplier
		FROM plan_meals pm
		JOIN recipes r ON r.id = pm.recipe_id
		WHERE pm.plan_id = $1
		ORDER BY pm.day,
			CASE pm.slot
				WHEN 'breakfast' THEN 1
				WHEN 'lunch' THEN 2
				WHEN 'dinner' THEN 3
				ELSE 4
			END
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []*models.PlanMeal
	for rows.Next() {
		m := &models.PlanMeal{}
		err := rows.Scan(&m.ID, &m.PlanID, &m.Day, &m.Slot, &m.RecipeID, &m.RecipeName, &m.PortionMultiplier)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, nil
}

// AddPlanMeal assigns a recipe to a day/slot, replacing any existing meal
// in that slot
func (db *DB) AddPlanMeal(ctx context.Context, planID, day int, slot string, recipeID int, portionMultiplier float64) (*models.PlanMeal, error) {
	m := &models.PlanMeal{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO plan_meals (plan_id, day, slot, recipe_id, portion_multiplier)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (plan_id, day, slot)
		DO UPDATE SET recipe_id = EXCLUDED.recipe_id, portion_multiplier = EXCLUDED.portion_multiplier
		RETURNING id, plan_id, day, slot, recipe_id, portion_multiplier
	`, planID, day, slot, recipeID, portionMultiplier).Scan(
		&m.ID, &m.PlanID, &m.Day, &m.Slot, &m.RecipeID, &m.PortionMultiplier)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdatePlanMeal applies a partial update to one plan meal
func (db *DB) UpdatePlanMeal(ctx context.Context, mealID, planID int, req *models.UpdateMealRequest) (*models.PlanMeal, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Day != nil {
		setClauses = append(setClauses, fmt.Sprintf("day = $%d", argIndex))
		args = append(args, *req.Day)
		argIndex++
	}
	if req.Slot != nil {
		setClauses = append(setClauses, fmt.Sprintf("slot = $%d", argIndex))
		args = append(args, *req.Slot)
		argIndex++
	}
	if req.RecipeID != nil {
		setClauses = append(setClauses, fmt.Sprintf("recipe_id = $%d", argIndex))
		args = append(args, *req.RecipeID)
		argIndex++
	}
	if req.PortionMultiplier != nil {
		setClauses = append(setClauses, fmt.Sprintf("portion_multiplier = $%d", argIndex))
		args = append(args, *req.PortionMultiplier)
		argIndex++
	}

	if len(setClauses) == 0 {
		return db.getPlanMeal(ctx, mealID, planID)
	}

	query := fmt.Sprintf(`
		UPDATE plan_meals
		SET %s
		WHERE id = $%d AND plan_id = $%d
		RETURNING id, plan_id, day, slot, recipe_id, portion_multiplier
	`, strings.Join(setClauses, ", "), argIndex, argIndex+1)
	args = append(args, mealID, planID)

	m := &models.PlanMeal{}
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&m.ID, &m.PlanID, &m.Day, &m.Slot, &m.RecipeID, &m.PortionMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanMealNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (db *DB) getPlanMeal(ctx context.Context, mealID, planID int) (*models.PlanMeal, error) {
	m := &models.PlanMeal{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, plan_id, day, slot, recipe_id, portion_multiplier
		FROM plan_meals
		WHERE id = $1 AND plan_id = $2
	`, mealID, planID).Scan(&m.ID, &m.PlanID, &m.Day, &m.Slot, &m.RecipeID, &m.PortionMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanMealNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RemovePlanMeal deletes one meal from a plan
func (db *DB) RemovePlanMeal(ctx context.Context, mealID, planID int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM plan_meals WHERE id = $1 AND plan_id = $2", mealID, planID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanMealNotFound
	}
	return nil
}

// ReplaceShoppingList swaps a plan's stored list for a freshly built one in
// a single transaction, so readers never see a half-rebuilt list
func (db *DB) ReplaceShoppingList(ctx context.Context, planID int, items []*models.ShoppingListItem) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "DELETE FROM shopping_list_items WHERE plan_id = $1", planID)
	if err != nil {
		return err
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO shopping_list_items (plan_id, ingredient_id, quantity, unit, estimated_cost, has_in_pantry)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, planID, item.IngredientID, item.Quantity, item.Unit, item.EstimatedCost, item.HasInPantry)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetShoppingList returns a plan's stored list ordered by ingredient id
func (db *DB) GetShoppingList(ctx context.Context, planID int) ([]*models.ShoppingListItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT sli.id, sli.plan_id, sli.ingredient_id, i.name, sli.quantity, sli.unit, sli.estimated_cost, sli.has_in_pantry
		FROM shopping_list_items sli
		JOIN ingredients i ON i.id = sli.ingredient_id
		WHERE sli.plan_id = $1
		ORDER BY sli.ingredient_id ASC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.ShoppingListItem
	for rows.Next() {
		item := &models.ShoppingListItem{}
		err := rows.Scan(&item.ID, &item.PlanID, &item.IngredientID, &item.IngredientName,
			&item.Quantity, &item.Unit, &item.EstimatedCost, &item.HasInPantry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

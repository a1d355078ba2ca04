package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

// GetShoppingList returns the stored shopping list for a plan
func (h *Handler) GetShoppingList(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	items, err := h.db.GetShoppingList(c.Context(), plan.ID)
	if err != nil {
		h.log.Error("failed to get shopping list", zap.Int("plan_id", plan.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to get shopping list")
	}

	return Success(c, &models.ShoppingListResult{
		PlanID:    plan.ID,
		Items:     items,
		TotalCost: services.TotalCost(items),
	})
}

// RebuildShoppingList recomputes a plan's shopping list from its current
// meals and stores the result, replacing any previous list. Rebuilding from
// unchanged meals yields the same list.
func (h *Handler) RebuildShoppingList(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	meals, err := h.db.GetPlanMeals(c.Context(), plan.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get plan meals")
	}

	recipeIDs := make([]int, 0, len(meals))
	seen := make(map[int]bool)
	for _, meal := range meals {
		if !seen[meal.RecipeID] {
			seen[meal.RecipeID] = true
			recipeIDs = append(recipeIDs, meal.RecipeID)
		}
	}
	linesByRecipe, err := h.db.GetRecipeLinesBatch(c.Context(), recipeIDs)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe lines")
	}

	usage := make([]services.MealUsage, 0, len(meals))
	var ingredientIDs []int
	seenIng := make(map[int]bool)
	for _, meal := range meals {
		lines := linesByRecipe[meal.RecipeID]
		usage = append(usage, services.MealUsage{
			Lines:             lines,
			PortionMultiplier: meal.PortionMultiplier,
		})
		for _, line := range lines {
			if !seenIng[line.IngredientID] {
				seenIng[line.IngredientID] = true
				ingredientIDs = append(ingredientIDs, line.IngredientID)
			}
		}
	}

	ingredients, err := h.db.GetIngredientsByIDs(c.Context(), ingredientIDs)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get ingredients")
	}
	overrides, err := h.db.GetPriceOverrides(c.Context(), plan.UserID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get price overrides")
	}
	pantry, err := h.db.GetPantryFlags(c.Context(), plan.UserID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get pantry items")
	}

	items, err := h.listBuilder.Build(usage, ingredients, overrides, pantry)
	if err != nil {
		var conflict *services.UnitConflictError
		if errors.As(err, &conflict) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(APIResponse{
				Success: false,
				Error:   conflict.Error(),
			})
		}
		h.log.Error("failed to build shopping list", zap.Int("plan_id", plan.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to build shopping list")
	}

	if err := h.db.ReplaceShoppingList(c.Context(), plan.ID, items); err != nil {
		h.log.Error("failed to store shopping list", zap.Int("plan_id", plan.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to store shopping list")
	}

	// Re-read so items carry ids and ingredient names
	stored, err := h.db.GetShoppingList(c.Context(), plan.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get shopping list")
	}

	return Success(c, &models.ShoppingListResult{
		PlanID:    plan.ID,
		Items:     stored,
		TotalCost: services.TotalCost(stored),
	})
}

package handlers

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

// ListPlans returns the user's plans
func (h *Handler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.db.ListPlans(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("failed to list plans", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list plans")
	}
	return Success(c, plans)
}

// GetPlan returns a plan with its meals
func (h *Handler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	meals, err := h.db.GetPlanMeals(c.Context(), plan.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get plan meals")
	}

	return Success(c, &models.PlanWithMeals{Plan: *plan, Meals: meals})
}

// CreatePlan creates a plan. The calorie target falls back to the user's
// profile target, then to 2000.
func (h *Handler) CreatePlan(c *fiber.Ctx) error {
	var req models.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	userID := middleware.GetUserID(c)
	target := 2000.0
	if req.DailyKcalTarget != nil {
		if *req.DailyKcalTarget <= 0 {
			return Error(c, fiber.StatusBadRequest, "daily kcal target must be positive")
		}
		target = *req.DailyKcalTarget
	} else if user, err := h.db.GetUserByID(c.Context(), userID); err == nil && user.DailyKcalTarget != nil {
		target = *user.DailyKcalTarget
	}

	plan, err := h.db.CreatePlan(c.Context(), userID, &req, target)
	if err != nil {
		h.log.Error("failed to create plan", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create plan")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: plan})
}

// UpdatePlan applies a partial update
func (h *Handler) UpdatePlan(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid plan id")
	}

	var req models.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.DailyKcalTarget != nil && *req.DailyKcalTarget <= 0 {
		return Error(c, fiber.StatusBadRequest, "daily kcal target must be positive")
	}

	plan, err := h.db.UpdatePlan(c.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		return h.planError(c, err)
	}

	h.planCache.Invalidate(c.Context(), plan.ID)
	return Success(c, plan)
}

// DeletePlan removes a plan
func (h *Handler) DeletePlan(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid plan id")
	}

	if err := h.db.DeletePlan(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return h.planError(c, err)
	}

	h.planCache.Invalidate(c.Context(), id)
	return c.JSON(fiber.Map{
		"message": "plan deleted",
	})
}

// AddMeal assigns a recipe to a day/slot. Without an explicit portion
// multiplier the scaler picks one from the recipe's base calories and the
// day's remaining budget.
func (h *Handler) AddMeal(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	var req models.AddMealRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Day < 0 || !validSlot(req.Slot) {
		return Error(c, fiber.StatusBadRequest, "invalid day or slot")
	}

	// The recipe must belong to the same user
	if _, err := h.db.GetRecipeByID(c.Context(), req.RecipeID, plan.UserID); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}

	multiplier := 1.0
	if req.PortionMultiplier != nil {
		if *req.PortionMultiplier <= 0 {
			return Error(c, fiber.StatusBadRequest, "portion multiplier must be positive")
		}
		multiplier = *req.PortionMultiplier
	} else {
		multiplier, err = h.autoPortion(c.Context(), plan, req.Day, req.RecipeID)
		if err != nil {
			h.log.Error("failed to compute portion multiplier", zap.Error(err))
			return Error(c, fiber.StatusInternalServerError, "failed to compute portion multiplier")
		}
	}

	meal, err := h.db.AddPlanMeal(c.Context(), plan.ID, req.Day, req.Slot, req.RecipeID, multiplier)
	if err != nil {
		h.log.Error("failed to add meal", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to add meal")
	}

	h.planCache.Invalidate(c.Context(), plan.ID)
	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: meal})
}

// UpdateMeal updates one plan meal
func (h *Handler) UpdateMeal(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	mealID, err := strconv.Atoi(c.Params("mealId"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid meal id")
	}

	var req models.UpdateMealRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Slot != nil && !validSlot(*req.Slot) {
		return Error(c, fiber.StatusBadRequest, "invalid slot")
	}
	if req.PortionMultiplier != nil && *req.PortionMultiplier <= 0 {
		return Error(c, fiber.StatusBadRequest, "portion multiplier must be positive")
	}

	meal, err := h.db.UpdatePlanMeal(c.Context(), mealID, plan.ID, &req)
	if err != nil {
		if errors.Is(err, database.ErrPlanMealNotFound) {
			return Error(c, fiber.StatusNotFound, "meal not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update meal")
	}

	h.planCache.Invalidate(c.Context(), plan.ID)
	return Success(c, meal)
}

// RemoveMeal deletes one meal from a plan
func (h *Handler) RemoveMeal(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	mealID, err := strconv.Atoi(c.Params("mealId"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid meal id")
	}

	if err := h.db.RemovePlanMeal(c.Context(), mealID, plan.ID); err != nil {
		if errors.Is(err, database.ErrPlanMealNotFound) {
			return Error(c, fiber.StatusNotFound, "meal not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to remove meal")
	}

	h.planCache.Invalidate(c.Context(), plan.ID)
	return c.JSON(fiber.Map{
		"message": "meal removed",
	})
}

// GetPlanSummary returns per-day and whole-plan macro/cost totals,
// served from cache when possible
func (h *Handler) GetPlanSummary(c *fiber.Ctx) error {
	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	if cached, err := h.planCache.GetSummary(c.Context(), plan.ID); err == nil && cached != nil {
		return Success(c, cached)
	} else if err != nil {
		h.log.Warn("plan summary cache read failed", zap.Error(err))
	}

	summary, err := h.computePlanSummary(c.Context(), plan.ID)
	if err != nil {
		h.log.Error("failed to compute plan summary", zap.Int("plan_id", plan.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to compute plan summary")
	}

	if err := h.planCache.SetSummary(c.Context(), summary); err != nil {
		h.log.Warn("plan summary cache write failed", zap.Error(err))
	}

	return Success(c, summary)
}

// DraftMeals asks the drafting model to propose meals for one day and adds
// them to the plan. Proposed ingredient lines resolve like user input.
func (h *Handler) DraftMeals(c *fiber.Ctx) error {
	if h.drafter == nil || !h.drafter.Enabled() {
		return Error(c, fiber.StatusServiceUnavailable, "meal drafting is not configured")
	}

	plan, err := h.planFromParams(c)
	if err != nil {
		return h.planError(c, err)
	}

	var req models.DraftMealsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Day < 0 {
		return Error(c, fiber.StatusBadRequest, "invalid day")
	}

	drafted, err := h.drafter.DraftMeals(c.Context(), plan.DailyKcalTarget, req.Preferences)
	if err != nil {
		h.log.Error("meal drafting failed", zap.Error(err))
		return Error(c, fiber.StatusBadGateway, "meal drafting failed")
	}

	var meals []*models.PlanMeal
	for _, draft := range drafted {
		if !validSlot(draft.Slot) || draft.Name == "" {
			continue
		}

		lineReqs := make([]models.RecipeLineRequest, 0, len(draft.Lines))
		for _, text := range draft.Lines {
			lineReqs = append(lineReqs, models.RecipeLineRequest{Text: text})
		}
		resolved, err := h.resolveLines(c.Context(), lineReqs)
		if err != nil {
			h.log.Warn("skipping drafted meal with unresolvable lines",
				zap.String("meal", draft.Name), zap.Error(err))
			continue
		}

		createReq := &models.CreateRecipeRequest{Name: draft.Name}
		if draft.Description != "" {
			createReq.Description = &draft.Description
		}
		if draft.Instructions != "" {
			createReq.Instructions = &draft.Instructions
		}
		recipe, err := h.db.CreateRecipe(c.Context(), plan.UserID, createReq, resolved)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to store drafted recipe")
		}

		multiplier, err := h.autoPortion(c.Context(), plan, req.Day, recipe.ID)
		if err != nil {
			multiplier = 1.0
		}

		meal, err := h.db.AddPlanMeal(c.Context(), plan.ID, req.Day, draft.Slot, recipe.ID, multiplier)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to add drafted meal")
		}
		meals = append(meals, meal)
	}

	if len(meals) == 0 {
		return Error(c, fiber.StatusBadGateway, "drafting produced no usable meals")
	}

	h.planCache.Invalidate(c.Context(), plan.ID)
	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: meals})
}

func validSlot(slot string) bool {
	switch slot {
	case models.SlotBreakfast, models.SlotLunch, models.SlotDinner, models.SlotSnack:
		return true
	}
	return false
}

func (h *Handler) planFromParams(c *fiber.Ctx) (*models.Plan, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, errBadPlanID
	}
	return h.db.GetPlanByID(c.Context(), id, middleware.GetUserID(c))
}

var errBadPlanID = errors.New("invalid plan id")

func (h *Handler) planError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errBadPlanID):
		return Error(c, fiber.StatusBadRequest, "invalid plan id")
	case errors.Is(err, database.ErrPlanNotFound):
		return Error(c, fiber.StatusNotFound, "plan not found")
	default:
		h.log.Error("plan lookup failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to get plan")
	}
}

// mealTotals computes macro totals per meal at the meal's portion
// multiplier, returning a map keyed by meal id
func (h *Handler) mealTotals(ctx context.Context, meals []*models.PlanMeal) (map[int]models.MacroTotals, error) {
	recipeIDs := make([]int, 0, len(meals))
	seen := make(map[int]bool)
	for _, meal := range meals {
		if !seen[meal.RecipeID] {
			seen[meal.RecipeID] = true
			recipeIDs = append(recipeIDs, meal.RecipeID)
		}
	}

	linesByRecipe, err := h.db.GetRecipeLinesBatch(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	var ingredientIDs []int
	seenIng := make(map[int]bool)
	for _, lines := range linesByRecipe {
		for _, line := range lines {
			if !seenIng[line.IngredientID] {
				seenIng[line.IngredientID] = true
				ingredientIDs = append(ingredientIDs, line.IngredientID)
			}
		}
	}
	ingredients, err := h.db.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}

	baseTotals := make(map[int]models.MacroTotals, len(recipeIDs))
	for recipeID, lines := range linesByRecipe {
		var totals models.MacroTotals
		for _, line := range lines {
			ing := ingredients[line.IngredientID]
			if ing == nil {
				continue
			}
			lineTotals, err := services.ComputeLineMacros(ing, line.Quantity)
			if err != nil {
				return nil, err
			}
			totals.Add(lineTotals)
		}
		baseTotals[recipeID] = totals
	}

	result := make(map[int]models.MacroTotals, len(meals))
	for _, meal := range meals {
		result[meal.ID] = baseTotals[meal.RecipeID].Scale(meal.PortionMultiplier)
	}
	return result, nil
}

// computePlanSummary rolls meal totals up into per-day and weekly totals
func (h *Handler) computePlanSummary(ctx context.Context, planID int) (*models.PlanSummary, error) {
	meals, err := h.db.GetPlanMeals(ctx, planID)
	if err != nil {
		return nil, err
	}

	totalsByMeal, err := h.mealTotals(ctx, meals)
	if err != nil {
		return nil, err
	}

	dayTotals := make(map[int]models.MacroTotals)
	for _, meal := range meals {
		t := dayTotals[meal.Day]
		t.Add(totalsByMeal[meal.ID])
		dayTotals[meal.Day] = t
	}

	days := make([]int, 0, len(dayTotals))
	for day := range dayTotals {
		days = append(days, day)
	}
	sort.Ints(days)

	summary := &models.PlanSummary{PlanID: planID, Days: make([]models.DaySummary, 0, len(days))}
	for _, day := range days {
		summary.Days = append(summary.Days, models.DaySummary{Day: day, Totals: dayTotals[day]})
		summary.Week.Add(dayTotals[day])
	}
	return summary, nil
}

// autoPortion picks a portion multiplier for a recipe from the day's
// remaining calorie budget
func (h *Handler) autoPortion(ctx context.Context, plan *models.Plan, day, recipeID int) (float64, error) {
	meals, err := h.db.GetPlanMeals(ctx, plan.ID)
	if err != nil {
		return 0, err
	}

	var dayMeals []*models.PlanMeal
	for _, meal := range meals {
		if meal.Day == day {
			dayMeals = append(dayMeals, meal)
		}
	}

	consumed := 0.0
	if len(dayMeals) > 0 {
		totalsByMeal, err := h.mealTotals(ctx, dayMeals)
		if err != nil {
			return 0, err
		}
		for _, t := range totalsByMeal {
			consumed += t.Kcal
		}
	}

	lines, err := h.db.GetRecipeLines(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	var ids []int
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}
	ingredients, err := h.db.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	baseKcal := 0.0
	for _, line := range lines {
		ing := ingredients[line.IngredientID]
		if ing == nil {
			continue
		}
		lineTotals, err := services.ComputeLineMacros(ing, line.Quantity)
		if err != nil {
			return 0, err
		}
		baseKcal += lineTotals.Kcal
	}

	return services.PortionMultiplier(baseKcal, consumed, plan.DailyKcalTarget)
}

package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

// ListRecipes returns a paginated list of the user's recipes
func (h *Handler) ListRecipes(c *fiber.Ctx) error {
	params := &models.RecipeListParams{
		UserID: middleware.GetUserID(c),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
		Search: c.Query("search"),
	}
	if params.Limit < 1 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	recipes, total, err := h.db.ListRecipes(c.Context(), params)
	if err != nil {
		h.log.Error("failed to list recipes", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list recipes")
	}

	return SuccessWithMeta(c, recipes, total, params.Limit, params.Offset)
}

// GetRecipe returns a recipe with its lines and computed macro totals
func (h *Handler) GetRecipe(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetRecipeByID(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}

	result, err := h.loadRecipeWithTotals(c.Context(), recipe)
	if err != nil {
		h.log.Error("failed to compute recipe totals", zap.Int("recipe_id", id), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to compute recipe totals")
	}

	return Success(c, result)
}

// CreateRecipe creates a recipe, resolving free-text ingredient lines
// through the catalog
func (h *Handler) CreateRecipe(c *fiber.Ctx) error {
	var req models.CreateRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	lines, err := h.resolveLines(c.Context(), req.Lines)
	if err != nil {
		return h.lineError(c, err)
	}

	recipe, err := h.db.CreateRecipe(c.Context(), middleware.GetUserID(c), &req, lines)
	if err != nil {
		h.log.Error("failed to create recipe", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create recipe")
	}

	result, err := h.loadRecipeWithTotals(c.Context(), recipe)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to compute recipe totals")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: result})
}

// UpdateRecipe applies a partial update; a lines array replaces all lines
func (h *Handler) UpdateRecipe(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.UpdateRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var replaceLines []database.ResolvedLine
	if req.Lines != nil {
		replaceLines, err = h.resolveLines(c.Context(), req.Lines)
		if err != nil {
			return h.lineError(c, err)
		}
	}

	recipe, err := h.db.UpdateRecipe(c.Context(), id, middleware.GetUserID(c), &req, replaceLines)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update recipe")
	}

	result, err := h.loadRecipeWithTotals(c.Context(), recipe)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to compute recipe totals")
	}

	return Success(c, result)
}

// DeleteRecipe removes a recipe
func (h *Handler) DeleteRecipe(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.db.DeleteRecipe(c.Context(), id, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete recipe")
	}

	return c.JSON(fiber.Map{
		"message": "recipe deleted",
	})
}

var errBadLine = errors.New("invalid recipe line")

// resolveLines turns request lines into catalog-resolved lines. Each line
// carries an ingredient id, a name, or free text; free text is parsed first
// and the name goes through the resolver.
func (h *Handler) resolveLines(ctx context.Context, reqLines []models.RecipeLineRequest) ([]database.ResolvedLine, error) {
	lines := make([]database.ResolvedLine, 0, len(reqLines))
	for _, req := range reqLines {
		quantity := 1.0
		unit := req.Unit
		name := req.Name

		if req.Text != "" {
			parsed := h.lineParser.ParseLine(req.Text)
			name = parsed.Name
			quantity = parsed.Quantity
			if unit == "" {
				unit = parsed.Unit
			}
		}
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if quantity < 0 {
			return nil, errBadLine
		}

		var ingredientID int
		switch {
		case req.IngredientID != nil:
			ingredientID = *req.IngredientID
		case name != "":
			ing, err := h.resolver.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			ingredientID = ing.ID
		default:
			return nil, errBadLine
		}

		lines = append(lines, database.ResolvedLine{
			IngredientID: ingredientID,
			Quantity:     quantity,
			Unit:         unit,
		})
	}
	return lines, nil
}

func (h *Handler) lineError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadLine) || errors.Is(err, services.ErrEmptyIngredientName) {
		return Error(c, fiber.StatusBadRequest, "each line needs an ingredient id, a name or text, and a non-negative quantity")
	}
	h.log.Error("failed to resolve recipe lines", zap.Error(err))
	return Error(c, fiber.StatusInternalServerError, "failed to resolve recipe lines")
}

// loadRecipeWithTotals attaches lines and macro totals to a recipe
func (h *Handler) loadRecipeWithTotals(ctx context.Context, recipe *models.Recipe) (*models.RecipeWithLines, error) {
	lines, err := h.db.GetRecipeLines(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}
	ingredients, err := h.db.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

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

	return &models.RecipeWithLines{
		Recipe: *recipe,
		Lines:  lines,
		Totals: totals,
	}, nil
}

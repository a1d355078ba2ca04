package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

// ListIngredients returns a paginated list of catalog ingredients
func (h *Handler) ListIngredients(c *fiber.Ctx) error {
	params := &models.IngredientListParams{
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

	ingredients, total, err := h.db.ListIngredients(c.Context(), params)
	if err != nil {
		h.log.Error("failed to list ingredients", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list ingredients")
	}

	return SuccessWithMeta(c, ingredients, total, params.Limit, params.Offset)
}

// GetIngredient returns one catalog ingredient
func (h *Handler) GetIngredient(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	ing, err := h.db.GetIngredientByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get ingredient")
	}

	return Success(c, ing)
}

// ResolveIngredient resolves a free-text name to a catalog ingredient,
// creating a draft when nothing matches confidently
func (h *Handler) ResolveIngredient(c *fiber.Ctx) error {
	var req models.ResolveIngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	ing, err := h.resolver.Resolve(c.Context(), req.Name)
	if err != nil {
		if errors.Is(err, services.ErrEmptyIngredientName) {
			return Error(c, fiber.StatusBadRequest, "ingredient name is required")
		}
		h.log.Error("ingredient resolution failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to resolve ingredient")
	}

	return Success(c, ing)
}

// SearchIngredients returns scored match candidates without creating
// anything, for typeahead and ambiguity checks
func (h *Handler) SearchIngredients(c *fiber.Ctx) error {
	name := c.Query("q")
	if name == "" {
		return Error(c, fiber.StatusBadRequest, "query parameter q is required")
	}

	matches, err := h.resolver.BestMatch(c.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrEmptyIngredientName) {
			return Error(c, fiber.StatusBadRequest, "query parameter q is required")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to search ingredients")
	}

	return Success(c, matches)
}

// CreateIngredient creates a catalog ingredient with explicit macro data
func (h *Handler) CreateIngredient(c *fiber.Ctx) error {
	var req models.CreateIngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	unitType := req.UnitType
	if unitType == "" {
		unitType = models.UnitPer100g
	}
	if !models.ValidUnitType(unitType) {
		return Error(c, fiber.StatusBadRequest, "invalid unit type")
	}

	userID := middleware.GetUserID(c)
	draft := &models.IngredientDraft{
		Name:           req.Name,
		SimilarityName: services.NormalizeName(req.Name),
		UnitType:       unitType,
		KcalPerUnit:    req.KcalPerUnit,
		ProteinPerUnit: req.ProteinPerUnit,
		CarbsPerUnit:   req.CarbsPerUnit,
		FatPerUnit:     req.FatPerUnit,
		PricePerUnit:   req.PricePerUnit,
		CreatedBy:      &userID,
	}

	ing, err := h.db.CreateIngredient(c.Context(), draft)
	if err != nil {
		h.log.Error("failed to create ingredient", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create ingredient")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: ing})
}

// UpdateIngredient updates a catalog ingredient, typically to back-fill a
// draft's macro and price fields
func (h *Handler) UpdateIngredient(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	var req models.UpdateIngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.UnitType != nil && !models.ValidUnitType(*req.UnitType) {
		return Error(c, fiber.StatusBadRequest, "invalid unit type")
	}

	similarityName := ""
	if req.Name != nil {
		if *req.Name == "" {
			return Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		similarityName = services.NormalizeName(*req.Name)
	}

	ing, err := h.db.UpdateIngredient(c.Context(), id, &req, similarityName)
	if err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update ingredient")
	}

	return Success(c, ing)
}

// DeleteIngredient removes a catalog ingredient (admin only)
func (h *Handler) DeleteIngredient(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	if err := h.db.DeleteIngredient(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete ingredient")
	}

	return c.JSON(fiber.Map{
		"message": "ingredient deleted",
	})
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/models"
)

// ListPriceOverrides returns the user's price overrides
func (h *Handler) ListPriceOverrides(c *fiber.Ctx) error {
	overrides, err := h.db.ListPriceOverrides(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("failed to list price overrides", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list price overrides")
	}
	return Success(c, overrides)
}

// SetPriceOverride creates or updates the user's price for an ingredient
func (h *Handler) SetPriceOverride(c *fiber.Ctx) error {
	var req models.SetPriceOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.PricePerUnit < 0 {
		return Error(c, fiber.StatusBadRequest, "price must be non-negative")
	}

	if _, err := h.db.GetIngredientByID(c.Context(), req.IngredientID); err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get ingredient")
	}

	override, err := h.db.SetPriceOverride(c.Context(), middleware.GetUserID(c), req.IngredientID, req.PricePerUnit)
	if err != nil {
		h.log.Error("failed to set price override", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to set price override")
	}

	return Success(c, override)
}

// DeletePriceOverride removes the user's price for an ingredient, reverting
// cost estimates to the catalog price
func (h *Handler) DeletePriceOverride(c *fiber.Ctx) error {
	ingredientID, err := strconv.Atoi(c.Params("ingredientId"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	if err := h.db.DeletePriceOverride(c.Context(), middleware.GetUserID(c), ingredientID); err != nil {
		if errors.Is(err, database.ErrPriceOverrideNotFound) {
			return Error(c, fiber.StatusNotFound, "price override not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete price override")
	}

	return c.JSON(fiber.Map{
		"message": "price override deleted",
	})
}

// ListPantryItems returns the ingredients the user has flagged as on hand
func (h *Handler) ListPantryItems(c *fiber.Ctx) error {
	items, err := h.db.ListPantryItems(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("failed to list pantry items", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list pantry items")
	}
	return Success(c, items)
}

// AddPantryItem flags an ingredient as already on hand
func (h *Handler) AddPantryItem(c *fiber.Ctx) error {
	var req models.AddPantryItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := h.db.GetIngredientByID(c.Context(), req.IngredientID); err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get ingredient")
	}

	if err := h.db.AddPantryItem(c.Context(), middleware.GetUserID(c), req.IngredientID); err != nil {
		h.log.Error("failed to add pantry item", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to add pantry item")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: fiber.Map{
		"message": "pantry item added",
	}})
}

// RemovePantryItem clears the on-hand flag for an ingredient
func (h *Handler) RemovePantryItem(c *fiber.Ctx) error {
	ingredientID, err := strconv.Atoi(c.Params("ingredientId"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	if err := h.db.RemovePantryItem(c.Context(), middleware.GetUserID(c), ingredientID); err != nil {
		if errors.Is(err, database.ErrPantryItemNotFound) {
			return Error(c, fiber.StatusNotFound, "pantry item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to remove pantry item")
	}

	return c.JSON(fiber.Map{
		"message": "pantry item removed",
	})
}

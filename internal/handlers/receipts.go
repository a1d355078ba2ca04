package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

const maxReceiptSize = 10 << 20 // 10 MB

var allowedReceiptTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/tiff": true,
}

// UploadReceipt accepts a receipt image, runs OCR and line parsing, matches
// parsed items against the ingredient catalog, and stores the result as a
// pending receipt for review
func (h *Handler) UploadReceipt(c *fiber.Ctx) error {
	if h.storage == nil || h.ocr == nil {
		return Error(c, fiber.StatusServiceUnavailable, "receipt import is not configured")
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "receipt file is required")
	}
	if fileHeader.Size > maxReceiptSize {
		return Error(c, fiber.StatusRequestEntityTooLarge, "receipt image exceeds 10 MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedReceiptTypes[contentType] {
		return Error(c, fiber.StatusBadRequest, "unsupported image type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to read receipt file")
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to read receipt file")
	}

	userID := middleware.GetUserID(c)
	key := fmt.Sprintf("receipts/%d/%d%s", userID, time.Now().UnixNano(),
		strings.ToLower(filepath.Ext(fileHeader.Filename)))

	if _, err := h.storage.Upload(c.Context(), key, bytes.NewReader(imageBytes),
		int64(len(imageBytes)), contentType); err != nil {
		h.log.Error("failed to store receipt image", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to store receipt image")
	}

	ocrResult, err := h.ocr.ProcessImage(imageBytes)
	if err != nil {
		h.log.Error("receipt OCR failed", zap.String("key", key), zap.Error(err))
		return Error(c, fiber.StatusUnprocessableEntity, "could not read text from the receipt image")
	}

	parsed, err := h.parser.Parse(ocrResult.Text)
	if err != nil {
		return Error(c, fiber.StatusUnprocessableEntity, "could not parse the receipt text")
	}

	threshold := h.cfg.MatchThreshold
	if threshold <= 0 {
		threshold = services.DefaultMatchThreshold
	}

	items := make([]*models.ReceiptItem, 0, len(parsed.Items))
	for _, p := range parsed.Items {
		item := &models.ReceiptItem{
			RawText:    p.RawText,
			ParsedName: p.Name,
			Price:      p.Price,
			Quantity:   p.Quantity,
			Included:   true,
		}

		matches, err := h.resolver.BestMatch(c.Context(), p.Name)
		if err != nil && !errors.Is(err, services.ErrEmptyIngredientName) {
			h.log.Warn("receipt item match failed",
				zap.String("name", p.Name), zap.Error(err))
		}
		if len(matches) > 0 && matches[0].Score >= threshold {
			item.MatchedIngredientID = &matches[0].Ingredient.ID
			item.MatchScore = &matches[0].Score
		}

		items = append(items, item)
	}

	receipt, err := h.db.CreateReceipt(c.Context(), userID, key, ocrResult.Text,
		parsed, items, h.cfg.ReceiptRetention)
	if err != nil {
		h.log.Error("failed to store receipt", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to store receipt")
	}

	result, err := h.db.GetReceiptByID(c.Context(), receipt.ID, userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get receipt")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: result})
}

// ListReceipts returns the user's receipts, newest first
func (h *Handler) ListReceipts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	receipts, total, err := h.db.ListReceipts(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		h.log.Error("failed to list receipts", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list receipts")
	}

	return SuccessWithMeta(c, receipts, total, limit, offset)
}

// GetReceipt returns a receipt with its parsed items
func (h *Handler) GetReceipt(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid receipt id")
	}

	receipt, err := h.db.GetReceiptByID(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.receiptError(c, err)
	}

	return Success(c, receipt)
}

// GetReceiptImage returns a time-limited download URL for the stored image
func (h *Handler) GetReceiptImage(c *fiber.Ctx) error {
	if h.storage == nil {
		return Error(c, fiber.StatusServiceUnavailable, "receipt import is not configured")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid receipt id")
	}

	receipt, err := h.db.GetReceiptByID(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.receiptError(c, err)
	}

	url, err := h.storage.GetPresignedURL(c.Context(), receipt.StorageKey, 15*time.Minute)
	if err != nil {
		h.log.Error("failed to generate receipt image URL", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to generate image URL")
	}

	return Success(c, fiber.Map{"url": url})
}

// UpdateReceiptItem corrects a parsed line (name, price, match, inclusion)
// before confirmation
func (h *Handler) UpdateReceiptItem(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid receipt id")
	}
	itemID, err := strconv.Atoi(c.Params("itemId"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	// Ownership check before touching items
	receipt, err := h.db.GetReceiptByID(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.receiptError(c, err)
	}
	if receipt.Status != models.ReceiptStatusPending {
		return Error(c, fiber.StatusConflict, "receipt is already confirmed")
	}

	var req models.UpdateReceiptItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Price != nil && *req.Price < 0 {
		return Error(c, fiber.StatusBadRequest, "price must be non-negative")
	}
	if req.MatchedIngredientID != nil {
		if _, err := h.db.GetIngredientByID(c.Context(), *req.MatchedIngredientID); err != nil {
			if errors.Is(err, database.ErrIngredientNotFound) {
				return Error(c, fiber.StatusNotFound, "ingredient not found")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to get ingredient")
		}
	}

	item, err := h.db.UpdateReceiptItem(c.Context(), itemID, id, &req)
	if err != nil {
		if errors.Is(err, database.ErrReceiptItemNotFound) {
			return Error(c, fiber.StatusNotFound, "receipt item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update receipt item")
	}

	return Success(c, item)
}

// ConfirmReceipt finalizes a pending receipt, turning every included matched
// item into a price override
func (h *Handler) ConfirmReceipt(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid receipt id")
	}

	receipt, err := h.db.ConfirmReceipt(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.receiptError(c, err)
	}

	return Success(c, receipt)
}

// DeleteReceipt removes a receipt and its stored image
func (h *Handler) DeleteReceipt(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid receipt id")
	}

	storageKey, err := h.db.DeleteReceipt(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return h.receiptError(c, err)
	}

	if h.storage != nil && storageKey != "" {
		if err := h.storage.Delete(c.Context(), storageKey); err != nil {
			h.log.Warn("failed to delete receipt image",
				zap.String("key", storageKey), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"message": "receipt deleted",
	})
}

func (h *Handler) receiptError(c *fiber.Ctx, err error) error {
	if errors.Is(err, database.ErrReceiptNotFound) {
		return Error(c, fiber.StatusNotFound, "receipt not found")
	}
	h.log.Error("receipt operation failed", zap.Error(err))
	return Error(c, fiber.StatusInternalServerError, "receipt operation failed")
}

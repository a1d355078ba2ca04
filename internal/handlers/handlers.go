package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/config"
	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	db          *database.DB
	cfg         *config.Config
	resolver    *services.IngredientResolver
	lineParser  *services.IngredientLineParser
	listBuilder *services.ShoppingListBuilder
	drafter     *services.MealDrafter
	planCache   *services.PlanCache
	storage     *services.StorageService
	ocr         *services.OCRService
	parser      *services.ReceiptParser
	log         *zap.Logger
}

// Options carries the optional collaborators; nil fields disable the
// corresponding endpoints instead of failing at startup
type Options struct {
	Drafter   *services.MealDrafter
	PlanCache *services.PlanCache
	Storage   *services.StorageService
	OCR       *services.OCRService
}

// New creates a new Handler instance
func New(db *database.DB, cfg *config.Config, log *zap.Logger, opts Options) *Handler {
	resolver := services.NewIngredientResolver(db, log)
	if cfg.MatchThreshold > 0 {
		resolver.SetThreshold(cfg.MatchThreshold)
	}

	return &Handler{
		db:          db,
		cfg:         cfg,
		resolver:    resolver,
		lineParser:  services.NewIngredientLineParser(),
		listBuilder: services.NewShoppingListBuilder(log),
		drafter:     opts.Drafter,
		planCache:   opts.PlanCache,
		storage:     opts.Storage,
		ocr:         opts.OCR,
		parser:      services.NewReceiptParser(),
		log:         log,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

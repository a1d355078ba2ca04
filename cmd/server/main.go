package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/config"
	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/handlers"
	"github.com/mealwise/meal-plan/internal/logger"
	"github.com/mealwise/meal-plan/internal/middleware"
	"github.com/mealwise/meal-plan/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := database.EnsureAdminUser(db, cfg); err != nil {
		zlog.Warn("could not ensure admin user", zap.Error(err))
	}

	opts := handlers.Options{
		Drafter: services.NewMealDrafter(cfg, zlog),
	}

	planCache, err := services.NewPlanCache(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, zlog)
	if err != nil {
		zlog.Warn("plan summary cache unavailable", zap.Error(err))
	} else {
		opts.PlanCache = planCache
		defer planCache.Close()
	}

	// Receipt import needs both object storage and a local tesseract
	// install; either one missing disables the feature
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		storage, err := services.NewStorageService(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			zlog.Warn("receipt storage unavailable", zap.Error(err))
		} else if err := storage.EnsureBucket(context.Background()); err != nil {
			zlog.Warn("receipt bucket unavailable", zap.Error(err))
		} else if ocr, err := services.NewOCRService(); err != nil {
			zlog.Warn("OCR unavailable, receipt import disabled", zap.Error(err))
		} else {
			opts.Storage = storage
			opts.OCR = ocr
			defer ocr.Close()
			zlog.Info("receipt import enabled", zap.String("bucket", cfg.S3Bucket))
		}
	}

	h := handlers.New(db, cfg, zlog, opts)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    12 << 20,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)
	auth.Put("/me", middleware.AuthRequired(cfg), h.UpdateCurrentUser)
	auth.Post("/change-password", middleware.AuthRequired(cfg), h.ChangePassword)
	auth.Post("/refresh", middleware.AuthRequired(cfg), h.RefreshToken)

	// Ingredient catalog (authenticated read/write, admin delete)
	ingredients := api.Group("/ingredients", middleware.AuthRequired(cfg))
	ingredients.Get("/", h.ListIngredients)
	ingredients.Get("/search", h.SearchIngredients)
	ingredients.Post("/resolve", h.ResolveIngredient)
	ingredients.Get("/:id", h.GetIngredient)
	ingredients.Post("/", h.CreateIngredient)
	ingredients.Put("/:id", h.UpdateIngredient)
	ingredients.Delete("/:id", middleware.AdminRequired(), h.DeleteIngredient)

	// Recipes (authenticated, user-scoped)
	recipes := api.Group("/recipes", middleware.AuthRequired(cfg))
	recipes.Get("/", h.ListRecipes)
	recipes.Post("/", h.CreateRecipe)
	recipes.Get("/:id", h.GetRecipe)
	recipes.Put("/:id", h.UpdateRecipe)
	recipes.Delete("/:id", h.DeleteRecipe)

	// Plans, meals, summaries and shopping lists
	plans := api.Group("/plans", middleware.AuthRequired(cfg))
	plans.Get("/", h.ListPlans)
	plans.Post("/", h.CreatePlan)
	plans.Get("/:id", h.GetPlan)
	plans.Put("/:id", h.UpdatePlan)
	plans.Delete("/:id", h.DeletePlan)
	plans.Post("/:id/meals", h.AddMeal)
	plans.Put("/:id/meals/:mealId", h.UpdateMeal)
	plans.Delete("/:id/meals/:mealId", h.RemoveMeal)
	plans.Get("/:id/summary", h.GetPlanSummary)
	plans.Post("/:id/draft", h.DraftMeals)
	plans.Get("/:id/shopping-list", h.GetShoppingList)
	plans.Post("/:id/shopping-list/rebuild", h.RebuildShoppingList)

	// Price overrides and pantry
	pantry := api.Group("/pantry", middleware.AuthRequired(cfg))
	pantry.Get("/", h.ListPantryItems)
	pantry.Post("/", h.AddPantryItem)
	pantry.Delete("/:ingredientId", h.RemovePantryItem)

	overrides := api.Group("/price-overrides", middleware.AuthRequired(cfg))
	overrides.Get("/", h.ListPriceOverrides)
	overrides.Put("/", h.SetPriceOverride)
	overrides.Delete("/:ingredientId", h.DeletePriceOverride)

	// Receipt import
	receipts := api.Group("/receipts", middleware.AuthRequired(cfg))
	receipts.Post("/upload", h.UploadReceipt)
	receipts.Get("/", h.ListReceipts)
	receipts.Get("/:id", h.GetReceipt)
	receipts.Get("/:id/image", h.GetReceiptImage)
	receipts.Put("/:id/items/:itemId", h.UpdateReceiptItem)
	receipts.Post("/:id/confirm", h.ConfirmReceipt)
	receipts.Delete("/:id", h.DeleteReceipt)

	// Periodic cleanup of unconfirmed receipts past retention
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runReceiptCleanup(cleanupCtx, db, opts.Storage, zlog)

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	cancelCleanup()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}

// runReceiptCleanup deletes expired pending receipts once at startup and
// then every 6 hours, removing the stored images when storage is configured
func runReceiptCleanup(ctx context.Context, db *database.DB, storage *services.StorageService, zlog *zap.Logger) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		keys, err := db.CleanupExpiredReceipts(ctx)
		if err != nil {
			zlog.Warn("receipt cleanup failed", zap.Error(err))
		} else if len(keys) > 0 {
			zlog.Info("cleaned up expired receipts", zap.Int("count", len(keys)))
			if storage != nil {
				if err := storage.DeleteMultiple(ctx, keys); err != nil {
					zlog.Warn("failed to delete expired receipt images", zap.Error(err))
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mealwise/meal-plan/internal/config"
	"github.com/mealwise/meal-plan/internal/database"
	"github.com/mealwise/meal-plan/internal/models"
	"github.com/mealwise/meal-plan/internal/services"
)

// SeedIngredient is one catalog row parsed from the CSV.
// Expected columns: name,unit_type,kcal,protein,carbs,fat,price
// Macro and price values are per 100 g, per 100 ml or per piece depending
// on unit_type; empty cells stay unset.
type SeedIngredient struct {
	Name     string
	UnitType string
	Kcal     *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
	Price    *float64
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	localFile := flag.String("file", "", "Local CSV file to import")
	sourceURL := flag.String("url", "", "Download the CSV from this URL instead of a local file")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()

	if *localFile == "" && *sourceURL == "" {
		log.Fatal("either -file or -url is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Starting ingredient catalog import...")

	var reader io.Reader
	if *localFile != "" {
		file, err := os.Open(*localFile)
		if err != nil {
			log.Fatalf("Failed to open local file: %v", err)
		}
		defer file.Close()
		reader = file
		log.Printf("Reading from local file: %s", *localFile)
	} else {
		log.Printf("Downloading ingredient data from: %s", *sourceURL)
		resp, err := http.Get(*sourceURL)
		if err != nil {
			log.Fatalf("Failed to download ingredient data: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Failed to download: HTTP %d", resp.StatusCode)
		}
		reader = resp.Body
	}

	ingredients, err := parseIngredientData(reader)
	if err != nil {
		log.Fatalf("Failed to parse ingredient data: %v", err)
	}

	log.Printf("Found %d ingredients to import", len(ingredients))

	if *dryRun {
		log.Println("DRY RUN - No changes will be made")
		printPreview(ingredients, 20)
		return
	}

	imported, updated, err := importIngredients(db, ingredients)
	if err != nil {
		log.Fatalf("Failed to import ingredients: %v", err)
	}

	log.Printf("Import complete: %d new ingredients, %d updated", imported, updated)
}

// parseIngredientData reads the CSV and deduplicates rows by name; the last
// row for a name wins
func parseIngredientData(reader io.Reader) ([]SeedIngredient, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	nameCol, ok := colMap["name"]
	if !ok {
		return nil, fmt.Errorf("CSV is missing a name column")
	}

	byName := make(map[string]*SeedIngredient)
	rowCount := 0

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed row: %v", err)
			continue
		}
		rowCount++

		name := strings.TrimSpace(record[nameCol])
		if name == "" {
			continue
		}

		unitType := cell(record, colMap, "unit_type")
		if unitType == "" {
			unitType = models.UnitPer100g
		}
		if !models.ValidUnitType(unitType) {
			log.Printf("Warning: skipping %q: invalid unit type %q", name, unitType)
			continue
		}

		ing := &SeedIngredient{
			Name:     name,
			UnitType: unitType,
			Kcal:     floatCell(record, colMap, "kcal"),
			Protein:  floatCell(record, colMap, "protein"),
			Carbs:    floatCell(record, colMap, "carbs"),
			Fat:      floatCell(record, colMap, "fat"),
			Price:    floatCell(record, colMap, "price"),
		}
		byName[strings.ToLower(name)] = ing
	}

	log.Printf("Processed %d rows", rowCount)

	ingredients := make([]SeedIngredient, 0, len(byName))
	for _, ing := range byName {
		ingredients = append(ingredients, *ing)
	}
	sort.Slice(ingredients, func(i, j int) bool {
		return ingredients[i].Name < ingredients[j].Name
	})
	return ingredients, nil
}

func cell(record []string, colMap map[string]int, col string) string {
	idx, ok := colMap[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func floatCell(record []string, colMap map[string]int, col string) *float64 {
	raw := cell(record, colMap, col)
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		return nil
	}
	return &val
}

// importIngredients upserts the catalog in batched transactions
func importIngredients(db *database.DB, ingredients []SeedIngredient) (imported, updated int, err error) {
	ctx := context.Background()
	batchSize := 500

	for i := 0; i < len(ingredients); i += batchSize {
		end := i + batchSize
		if end > len(ingredients) {
			end = len(ingredients)
		}
		batch := ingredients[i:end]

		batchImported, batchUpdated, err := importBatch(ctx, db, batch)
		if err != nil {
			return imported, updated, err
		}
		imported += batchImported
		updated += batchUpdated

		log.Printf("Progress: %d/%d ingredients processed (%d new, %d updated)",
			end, len(ingredients), imported, updated)
	}

	return imported, updated, nil
}

// importBatch upserts a batch in a single transaction. Existing rows get
// their macros and price refreshed; names and ids are stable.
func importBatch(ctx context.Context, db *database.DB, ingredients []SeedIngredient) (imported, updated int, err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ing := range ingredients {
		var inserted bool
		err := tx.QueryRow(ctx, `
			INSERT INTO ingredients (name, similarity_name, unit_type, kcal_per_unit, protein_per_unit, carbs_per_unit, fat_per_unit, price_per_unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (name) DO UPDATE SET
				similarity_name = EXCLUDED.similarity_name,
				unit_type = EXCLUDED.unit_type,
				kcal_per_unit = COALESCE(EXCLUDED.kcal_per_unit, ingredients.kcal_per_unit),
				protein_per_unit = COALESCE(EXCLUDED.protein_per_unit, ingredients.protein_per_unit),
				carbs_per_unit = COALESCE(EXCLUDED.carbs_per_unit, ingredients.carbs_per_unit),
				fat_per_unit = COALESCE(EXCLUDED.fat_per_unit, ingredients.fat_per_unit),
				price_per_unit = COALESCE(EXCLUDED.price_per_unit, ingredients.price_per_unit),
				updated_at = NOW()
			RETURNING (xmax = 0)
		`, ing.Name, services.NormalizeName(ing.Name), ing.UnitType,
			ing.Kcal, ing.Protein, ing.Carbs, ing.Fat, ing.Price).Scan(&inserted)
		if err != nil {
			return imported, updated, fmt.Errorf("failed to upsert %q: %w", ing.Name, err)
		}
		if inserted {
			imported++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return imported, updated, nil
}

// printPreview shows a sample of the data to be imported
func printPreview(ingredients []SeedIngredient, limit int) {
	fmt.Println("\n=== Preview of ingredients to import ===")
	fmt.Printf("Total: %d ingredients\n\n", len(ingredients))

	unitCount := make(map[string]int)
	for _, ing := range ingredients {
		unitCount[ing.UnitType]++
	}
	fmt.Println("Ingredients per unit type:")
	units := make([]string, 0, len(unitCount))
	for u := range unitCount {
		units = append(units, u)
	}
	sort.Strings(units)
	for _, u := range units {
		fmt.Printf("  %s: %d\n", u, unitCount[u])
	}

	fmt.Printf("\nSample ingredients (first %d):\n", limit)
	for i, ing := range ingredients {
		if i >= limit {
			break
		}
		kcal := "unset"
		if ing.Kcal != nil {
			kcal = fmt.Sprintf("%.0f kcal", *ing.Kcal)
		}
		fmt.Printf("  %s (%s, %s)\n", ing.Name, ing.UnitType, kcal)
	}
}

package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	// ErrEmptyIngredientName is the only input the resolver rejects
	ErrEmptyIngredientName = errors.New("ingredient name is empty")
)

const (
	// DefaultMatchThreshold is the minimum similarity score for a catalog
	// candidate to win over draft creation
	DefaultMatchThreshold = 0.55

	// maxCandidatesPerToken caps the catalog rows fetched per search token
	maxCandidatesPerToken = 30
)

// zero-impact seasonings/diluents that must never inherit a fuzzy match's
// macros; resolved to fixed zero-macro catalog records instead
const (
	waterName      = "Water"
	saltPepperName = "Salt and black pepper"
)

// IngredientCatalog is the persistence collaborator the resolver reads and
// writes through. Find methods return (nil, nil) when nothing matches.
// CreateIngredient must have upsert-on-conflict semantics on the name so
// concurrent creation of the same name yields a single row.
type IngredientCatalog interface {
	FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error)
	FindIngredientBySimilarityName(ctx context.Context, similarityName string) (*models.Ingredient, error)
	SearchIngredientsContaining(ctx context.Context, token string, limit int) ([]*models.Ingredient, error)
	CreateIngredient(ctx context.Context, draft *models.IngredientDraft) (*models.Ingredient, error)
}

// ResolvedMatch pairs a catalog candidate with its similarity score
type ResolvedMatch struct {
	Ingredient *models.Ingredient `json:"ingredient"`
	Score      float64            `json:"score"`
}

// IngredientResolver maps free-text ingredient names (typed by users or
// drafted by the model) onto catalog records, creating a draft record when
// no confident match exists.
type IngredientResolver struct {
	catalog   IngredientCatalog
	threshold float64
	log       *zap.Logger

	mu        sync.Mutex
	nameLocks map[string]*sync.Mutex
}

// NewIngredientResolver creates a resolver with the default match threshold
func NewIngredientResolver(catalog IngredientCatalog, log *zap.Logger) *IngredientResolver {
	return &IngredientResolver{
		catalog:   catalog,
		threshold: DefaultMatchThreshold,
		log:       log,
		nameLocks: make(map[string]*sync.Mutex),
	}
}

// SetThreshold overrides the match threshold
func (r *IngredientResolver) SetThreshold(t float64) {
	r.threshold = t
}

// Resolve maps rawName to a catalog ingredient. It never returns
// "not found": when no candidate scores at or above the threshold a draft
// record is created with unset macros. The only rejected input is an
// empty or whitespace-only name.
func (r *IngredientResolver) Resolve(ctx context.Context, rawName string) (*models.Ingredient, error) {
	trimmed := strings.TrimSpace(rawName)
	if trimmed == "" {
		return nil, ErrEmptyIngredientName
	}
	normalized := NormalizeName(rawName)

	// Serialize resolution per normalized name so two concurrent calls for
	// the same unmatched name cannot both create a draft. The catalog's
	// name uniqueness backstops this across processes.
	unlock := r.lockName(normalized)
	defer unlock()

	if normalized == "water" {
		return r.fixedIngredient(ctx, waterName)
	}
	switch normalized {
	case "salt and black pepper", "salt black pepper", "salt pepper":
		return r.fixedIngredient(ctx, saltPepperName)
	}

	if ing, err := r.catalog.FindIngredientByName(ctx, trimmed); err != nil {
		return nil, err
	} else if ing != nil {
		return ing, nil
	}

	if ing, err := r.catalog.FindIngredientBySimilarityName(ctx, normalized); err != nil {
		return nil, err
	} else if ing != nil {
		return ing, nil
	}

	matches, err := r.scoredCandidates(ctx, rawName, normalized)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 && matches[0].Score >= r.threshold {
		return matches[0].Ingredient, nil
	}

	draft := &models.IngredientDraft{
		Name:           trimmed,
		SimilarityName: normalized,
		UnitType:       models.UnitPer100g,
	}
	created, err := r.catalog.CreateIngredient(ctx, draft)
	if err != nil {
		return nil, err
	}
	r.log.Info("created draft ingredient",
		zap.String("name", created.Name),
		zap.Int("ingredient_id", created.ID))
	return created, nil
}

// BestMatch runs the candidate search and returns all scored matches,
// best first, without creating anything. Callers that need to know whether
// a resolution was ambiguous compare the top score against the runner-up.
func (r *IngredientResolver) BestMatch(ctx context.Context, rawName string) ([]ResolvedMatch, error) {
	trimmed := strings.TrimSpace(rawName)
	if trimmed == "" {
		return nil, ErrEmptyIngredientName
	}
	return r.scoredCandidates(ctx, rawName, NormalizeName(rawName))
}

// scoredCandidates gathers catalog candidates via substring search over up
// to three search tokens, then scores each against rawName.
func (r *IngredientResolver) scoredCandidates(ctx context.Context, rawName, normalized string) ([]ResolvedMatch, error) {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return nil, nil
	}

	// Most specific first: the (singularized) last word usually names the
	// ingredient itself, the first word narrows it, the full phrase catches
	// multi-word names.
	var searchTokens []string
	last := SingularizeToken(tokens[len(tokens)-1])
	searchTokens = append(searchTokens, last)
	if len(tokens) > 1 {
		first := SingularizeToken(tokens[0])
		if first != last {
			searchTokens = append(searchTokens, first)
		}
	}
	if normalized != last && (len(searchTokens) < 2 || normalized != searchTokens[1]) {
		searchTokens = append(searchTokens, normalized)
	}

	seen := make(map[int]*models.Ingredient)
	for _, tok := range searchTokens {
		candidates, err := r.catalog.SearchIngredientsContaining(ctx, tok, maxCandidatesPerToken)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			seen[c.ID] = c
		}
	}
	if len(seen) == 0 {
		return nil, nil
	}

	matches := make([]ResolvedMatch, 0, len(seen))
	for _, c := range seen {
		matches = append(matches, ResolvedMatch{
			Ingredient: c,
			Score:      SimilarityScore(rawName, c.Name),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Ingredient.ID < matches[j].Ingredient.ID
	})
	return matches, nil
}

// fixedIngredient returns the named zero-macro record, creating it on
// first use
func (r *IngredientResolver) fixedIngredient(ctx context.Context, name string) (*models.Ingredient, error) {
	ing, err := r.catalog.FindIngredientByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if ing != nil {
		return ing, nil
	}
	zero := 0.0
	draft := &models.IngredientDraft{
		Name:           name,
		SimilarityName: NormalizeName(name),
		UnitType:       models.UnitUnspecified,
		KcalPerUnit:    &zero,
		ProteinPerUnit: &zero,
		CarbsPerUnit:   &zero,
		FatPerUnit:     &zero,
	}
	return r.catalog.CreateIngredient(ctx, draft)
}

func (r *IngredientResolver) lockName(name string) func() {
	r.mu.Lock()
	lk, ok := r.nameLocks[name]
	if !ok {
		lk = &sync.Mutex{}
		r.nameLocks[name] = lk
	}
	r.mu.Unlock()
	lk.Lock()
	return lk.Unlock
}

package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
)

// fakeCatalog is an in-memory IngredientCatalog with the same
// upsert-on-name-conflict semantics as the real repository.
type fakeCatalog struct {
	mu      sync.Mutex
	nextID  int
	rows    []*models.Ingredient
	creates int
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{}
	for _, name := range names {
		c.insert(&models.IngredientDraft{
			Name:           name,
			SimilarityName: NormalizeName(name),
			UnitType:       models.UnitPer100g,
		})
	}
	return c
}

func (c *fakeCatalog) insert(draft *models.IngredientDraft) *models.Ingredient {
	c.nextID++
	ing := &models.Ingredient{
		ID:             c.nextID,
		Name:           draft.Name,
		SimilarityName: draft.SimilarityName,
		UnitType:       draft.UnitType,
		KcalPerUnit:    draft.KcalPerUnit,
		ProteinPerUnit: draft.ProteinPerUnit,
		CarbsPerUnit:   draft.CarbsPerUnit,
		FatPerUnit:     draft.FatPerUnit,
		PricePerUnit:   draft.PricePerUnit,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	c.rows = append(c.rows, ing)
	return ing
}

func (c *fakeCatalog) FindIngredientByName(_ context.Context, name string) (*models.Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ing := range c.rows {
		if ing.Name == name {
			return ing, nil
		}
	}
	return nil, nil
}

func (c *fakeCatalog) FindIngredientBySimilarityName(_ context.Context, similarityName string) (*models.Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ing := range c.rows {
		if ing.SimilarityName == similarityName {
			return ing, nil
		}
	}
	return nil, nil
}

func (c *fakeCatalog) SearchIngredientsContaining(_ context.Context, token string, limit int) ([]*models.Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	needle := strings.ToLower(token)
	var out []*models.Ingredient
	for _, ing := range c.rows {
		if strings.Contains(strings.ToLower(ing.Name), needle) ||
			strings.Contains(ing.SimilarityName, needle) {
			out = append(out, ing)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (c *fakeCatalog) CreateIngredient(_ context.Context, draft *models.IngredientDraft) (*models.Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ing := range c.rows {
		if ing.Name == draft.Name {
			return ing, nil
		}
	}
	c.creates++
	return c.insert(draft), nil
}

func newTestResolver(catalog IngredientCatalog) *IngredientResolver {
	return NewIngredientResolver(catalog, zap.NewNop())
}

func TestResolveEmptyName(t *testing.T) {
	r := newTestResolver(newFakeCatalog())
	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyIngredientName)
}

func TestResolveWaterSpecialCase(t *testing.T) {
	catalog := newFakeCatalog("Watermelon")
	r := newTestResolver(catalog)

	ing, err := r.Resolve(context.Background(), "  Water ")
	require.NoError(t, err)
	assert.Equal(t, "Water", ing.Name)
	require.NotNil(t, ing.KcalPerUnit)
	assert.Equal(t, 0.0, *ing.KcalPerUnit)

	// second resolution returns the same record
	again, err := r.Resolve(context.Background(), "water")
	require.NoError(t, err)
	assert.Equal(t, ing.ID, again.ID)
}

func TestResolveSeasoningSpecialCase(t *testing.T) {
	r := newTestResolver(newFakeCatalog("Black pepper"))
	for _, raw := range []string{"salt and black pepper", "Salt & black pepper", "salt, pepper"} {
		ing, err := r.Resolve(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "Salt and black pepper", ing.Name, "input %q", raw)
	}
}

func TestResolveExactNameMatch(t *testing.T) {
	catalog := newFakeCatalog("Chicken breast", "Chicken thigh")
	r := newTestResolver(catalog)

	ing, err := r.Resolve(context.Background(), " Chicken breast ")
	require.NoError(t, err)
	assert.Equal(t, "Chicken breast", ing.Name)
	assert.Equal(t, 0, catalog.creates)
}

func TestResolveSimilarityNameMatch(t *testing.T) {
	catalog := newFakeCatalog("Extra-Virgin Olive Oil")
	r := newTestResolver(catalog)

	ing, err := r.Resolve(context.Background(), "extra virgin olive oil!")
	require.NoError(t, err)
	assert.Equal(t, "Extra-Virgin Olive Oil", ing.Name)
	assert.Equal(t, 0, catalog.creates)
}

func TestResolveFuzzyTypo(t *testing.T) {
	catalog := newFakeCatalog("Banana", "Apple", "Bacon")
	r := newTestResolver(catalog)
	r.SetThreshold(0.35)

	ing, err := r.Resolve(context.Background(), "banan")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(ing.Name), "banana")
	assert.Equal(t, 0, catalog.creates)
}

func TestResolveFuzzyContainment(t *testing.T) {
	catalog := newFakeCatalog("Chicken breast", "Beef sirloin", "Chickpeas")
	r := newTestResolver(catalog)

	ing, err := r.Resolve(context.Background(), "boneless skinless chicken breast")
	require.NoError(t, err)
	assert.Equal(t, "Chicken breast", ing.Name)
	assert.Equal(t, 0, catalog.creates)
}

func TestResolveCreatesDraft(t *testing.T) {
	catalog := newFakeCatalog("Banana", "Apple")
	r := newTestResolver(catalog)

	ing, err := r.Resolve(context.Background(), " dragonfruit purée ")
	require.NoError(t, err)
	assert.Equal(t, "dragonfruit purée", ing.Name)
	assert.Equal(t, "dragonfruit pur e", ing.SimilarityName)
	assert.Equal(t, models.UnitPer100g, ing.UnitType)
	assert.Nil(t, ing.KcalPerUnit)
	assert.Nil(t, ing.PricePerUnit)
	assert.Equal(t, 1, catalog.creates)
}

func TestResolveSequentialNoDuplicateDraft(t *testing.T) {
	catalog := newFakeCatalog()
	r := newTestResolver(catalog)

	first, err := r.Resolve(context.Background(), "jackfruit")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "jackfruit")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, catalog.creates)
}

func TestResolveConcurrentSingleDraft(t *testing.T) {
	catalog := newFakeCatalog("Banana")
	r := newTestResolver(catalog)

	const workers = 16
	ids := make([]int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			ing, err := r.Resolve(context.Background(), "smoked paprika")
			if assert.NoError(t, err) {
				ids[i] = ing.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, catalog.creates, "concurrent resolution must create at most one row")
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
}

func TestBestMatchRanksCandidates(t *testing.T) {
	catalog := newFakeCatalog("Strawberry", "Blueberry", "Strawberry jam")
	r := newTestResolver(catalog)

	matches, err := r.BestMatch(context.Background(), "strawberries")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Strawberry", matches[0].Ingredient.Name)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score)
	}
}

func TestBestMatchDoesNotCreate(t *testing.T) {
	catalog := newFakeCatalog("Banana")
	r := newTestResolver(catalog)

	_, err := r.BestMatch(context.Background(), "completely unknown thing")
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.creates)
}

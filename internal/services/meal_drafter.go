package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/config"
)

var ErrDraftingDisabled = errors.New("meal drafting is not configured")

// MealDrafter asks an OpenRouter-compatible chat API to propose meals for a
// plan day. The model returns free-text ingredient lines; those go through
// the line parser and the resolver exactly like lines typed by a user.
type MealDrafter struct {
	client    *resty.Client
	model     string
	maxTokens int
	log       *zap.Logger
}

// DraftedMeal is one proposed meal with unresolved ingredient lines
type DraftedMeal struct {
	Slot         string   `json:"slot"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Lines        []string `json:"lines"`
}

// NewMealDrafter creates a meal drafter. A drafter with no API key is valid
// but returns ErrDraftingDisabled from DraftMeals.
func NewMealDrafter(cfg *config.Config, log *zap.Logger) *MealDrafter {
	var client *resty.Client
	if cfg.DraftAPIKey != "" {
		client = resty.New().
			SetBaseURL(cfg.DraftAPIBaseURL).
			SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.DraftAPIKey))
	}

	return &MealDrafter{
		client:    client,
		model:     cfg.DraftModel,
		maxTokens: cfg.DraftMaxTokens,
		log:       log,
	}
}

// Enabled reports whether drafting is configured
func (d *MealDrafter) Enabled() bool {
	return d.client != nil
}

// DraftMeals proposes breakfast/lunch/dinner for one day within the calorie
// target, honoring free-text preferences
func (d *MealDrafter) DraftMeals(ctx context.Context, dailyKcalTarget float64, preferences string) ([]DraftedMeal, error) {
	if d.client == nil {
		return nil, ErrDraftingDisabled
	}

	prompt := fmt.Sprintf(
		`Propose breakfast, lunch and dinner for one day totaling about %.0f kcal. %s
Respond with ONLY a JSON array, one object per meal:
[{"slot":"breakfast","name":"...","description":"...","instructions":"...","lines":["150 g oats","250 ml milk"]}]
Each entry in "lines" is one ingredient as "<quantity> <unit> <name>" using g, ml or piece units.`,
		dailyKcalTarget, preferences)

	body := map[string]interface{}{
		"model": d.model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
		"max_tokens": d.maxTokens,
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send draft request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("draft API returned error: %s", resp.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse draft API response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in draft API response")
	}

	meals, err := parseDraftedMeals(result.Choices[0].Message.Content)
	if err != nil {
		d.log.Warn("unparseable draft response",
			zap.String("model", d.model),
			zap.Error(err))
		return nil, err
	}
	return meals, nil
}

// parseDraftedMeals extracts the JSON array from the model's reply, which
// may be wrapped in code fences or prose
func parseDraftedMeals(content string) ([]DraftedMeal, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "["); start >= 0 {
		if end := strings.LastIndex(content, "]"); end > start {
			content = content[start : end+1]
		}
	}

	var meals []DraftedMeal
	if err := json.Unmarshal([]byte(content), &meals); err != nil {
		return nil, fmt.Errorf("draft response is not a meal array: %w", err)
	}
	if len(meals) == 0 {
		return nil, errors.New("draft response contained no meals")
	}
	return meals, nil
}

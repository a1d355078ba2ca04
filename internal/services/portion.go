package services

import (
	"errors"
	"math"
)

var (
	// ErrNegativeBaseKcal rejects a negative recipe base; zero means
	// "cannot scale" and yields the neutral multiplier instead
	ErrNegativeBaseKcal = errors.New("base kcal must not be negative")
)

// Portion multiplier bounds. Portions stay within a sane human range no
// matter how far off-target the running daily total is.
const (
	minPortion  = 0.75
	maxPortion  = 1.5
	portionStep = 0.25
)

// PortionMultiplier picks a portion multiplier for a meal from the recipe's
// base kcal and the remaining daily calorie budget. The raw ratio is
// clamped to [0.75, 1.5] first, then snapped to the nearest 0.25.
func PortionMultiplier(baseKcal, consumedSoFar, dailyTarget float64) (float64, error) {
	if baseKcal < 0 {
		return 0, ErrNegativeBaseKcal
	}
	if baseKcal == 0 {
		return 1.0, nil
	}
	raw := (dailyTarget - consumedSoFar) / baseKcal
	clamped := math.Max(minPortion, math.Min(maxPortion, raw))
	return math.Round(clamped/portionStep) * portionStep, nil
}

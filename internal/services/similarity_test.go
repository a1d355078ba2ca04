package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityScoreRootContainment(t *testing.T) {
	// no shared tokens, but "berry" is a root of "strawberry"
	score := SimilarityScore("strawberry", "berry")
	assert.Greater(t, score, 0.45)
	assert.Less(t, score, 1.0)
}

func TestSimilarityScoreTokenContainment(t *testing.T) {
	// the shorter side is fully contained after descriptor filtering
	score := SimilarityScore("chicken breast boneless skinless", "chicken breast")
	assert.GreaterOrEqual(t, score, 0.55)
}

func TestSimilarityScoreUnrelated(t *testing.T) {
	assert.Equal(t, 0.0, SimilarityScore("banana", "apple"))
}

func TestSimilarityScoreIdentical(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityScore("Olive Oil", "olive oil"))
}

func TestSimilarityScorePluralsCollapse(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityScore("tomatoes", "Tomato"))
}

func TestSimilarityScoreAsymmetricContainment(t *testing.T) {
	// min-side division: a short query inside a long catalog phrase
	// scores the same regardless of argument order
	a := SimilarityScore("rice", "long grain white rice")
	b := SimilarityScore("long grain white rice", "rice")
	assert.Equal(t, a, b)
	assert.Equal(t, 1.0, a)
}

func TestSimilarityScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, SimilarityScore("", "banana"))
	assert.Equal(t, 0.0, SimilarityScore("!!!", "banana"))
	// all tokens filtered as descriptors
	assert.Equal(t, 0.0, SimilarityScore("fresh whole", "banana"))
}

func TestSimilarityScorePrefersBetterPath(t *testing.T) {
	// typo with no token overlap is still recovered by the root check
	assert.GreaterOrEqual(t, SimilarityScore("banan", "Banana"), 0.8)
}

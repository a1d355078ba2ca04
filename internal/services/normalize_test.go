package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "tomatoes diced", NormalizeName("Tomatoes, Diced!"))
	// accented characters are outside [a-z0-9] and become spaces
	assert.Equal(t, "cr me fra che 2", NormalizeName("  Crème? fraîche -- 2  "))
	assert.Equal(t, "", NormalizeName("  !!! "))
	assert.Equal(t, "100g chicken", NormalizeName("100g chicken"))
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"Tomatoes, Diced!", "salt & pepper", "  Olive   Oil  ", ""}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestSingularizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"tomatoes", "tomato"},
		{"berries", "berry"},
		{"strawberries", "strawberry"},
		{"cherries", "cherry"},
		{"eggs", "egg"},
		{"oats", "oat"},
		// accepted false positive of the trailing-s rule
		{"glass", "glas"},
		// too short for the trailing-s rule
		{"gas", "gas"},
		{"peas", "pea"},
		{"rice", "rice"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SingularizeToken(tt.in), "token %q", tt.in)
	}
}

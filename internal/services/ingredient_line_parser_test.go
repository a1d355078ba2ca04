package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	parser := NewIngredientLineParser()

	tests := []struct {
		name     string
		input    string
		expected ParsedLine
	}{
		{
			name:  "quantity unit name",
			input: "2 cups diced tomatoes",
			expected: ParsedLine{
				Name:     "diced tomatoes",
				Quantity: 2,
				Unit:     "cup",
			},
		},
		{
			name:  "metric weight",
			input: "200 g chicken breast",
			expected: ParsedLine{
				Name:     "chicken breast",
				Quantity: 200,
				Unit:     "g",
			},
		},
		{
			name:  "mixed number with unicode fraction",
			input: "1 ½ lb chicken breast",
			expected: ParsedLine{
				Name:     "chicken breast",
				Quantity: 1.5,
				Unit:     "pound",
			},
		},
		{
			name:  "mixed number with ascii fraction",
			input: "1 1/2 cups flour",
			expected: ParsedLine{
				Name:     "flour",
				Quantity: 1.5,
				Unit:     "cup",
			},
		},
		{
			name:  "bare unicode fraction",
			input: "½ tsp salt",
			expected: ParsedLine{
				Name:     "salt",
				Quantity: 0.5,
				Unit:     "teaspoon",
			},
		},
		{
			name:  "superscript subscript fraction",
			input: "¹⁄₂ cup sugar",
			expected: ParsedLine{
				Name:     "sugar",
				Quantity: 0.5,
				Unit:     "cup",
			},
		},
		{
			name:  "quantity range averages",
			input: "2 - 3 cloves garlic",
			expected: ParsedLine{
				Name:     "garlic",
				Quantity: 2.5,
				Unit:     "clove",
			},
		},
		{
			name:  "checkbox bullet prefix",
			input: "- [ ] 3 eggs",
			expected: ParsedLine{
				Name:     "eggs",
				Quantity: 3,
			},
		},
		{
			name:  "no quantity defaults to one",
			input: "salt",
			expected: ParsedLine{
				Name:     "salt",
				Quantity: 1,
			},
		},
		{
			name:  "unit abbreviation normalized",
			input: "2 tbsp olive oil",
			expected: ParsedLine{
				Name:     "olive oil",
				Quantity: 2,
				Unit:     "tablespoon",
			},
		},
		{
			name:  "each becomes piece",
			input: "4 ea bell pepper",
			expected: ParsedLine{
				Name:     "bell pepper",
				Quantity: 4,
				Unit:     "piece",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.ParseLine(tt.input)
			assert.Equal(t, tt.expected.Name, got.Name)
			assert.InDelta(t, tt.expected.Quantity, got.Quantity, 0.001)
			assert.Equal(t, tt.expected.Unit, got.Unit)
			assert.Equal(t, tt.input, got.RawText)
		})
	}
}

func TestParseLineNotes(t *testing.T) {
	parser := NewIngredientLineParser()

	got := parser.ParseLine("chicken breast (about 200g), diced")
	assert.Equal(t, "chicken breast", got.Name)
	assert.Equal(t, "about 200g; diced", got.Notes)
	assert.InDelta(t, 1.0, got.Quantity, 0.001)
}

func TestParseMultiLine(t *testing.T) {
	parser := NewIngredientLineParser()

	lines := parser.Parse("150 g oats\n\n250 ml milk\n   \n1 banana")
	assert.Len(t, lines, 3)
	assert.Equal(t, "oats", lines[0].Name)
	assert.Equal(t, "g", lines[0].Unit)
	assert.Equal(t, "milk", lines[1].Name)
	assert.Equal(t, "ml", lines[1].Unit)
	assert.Equal(t, "banana", lines[2].Name)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraftedMeals(t *testing.T) {
	content := `[
		{"slot":"breakfast","name":"Oatmeal","lines":["150 g oats","250 ml milk"]},
		{"slot":"lunch","name":"Chicken salad","description":"Light lunch","lines":["200 g chicken breast"]}
	]`

	meals, err := parseDraftedMeals(content)
	require.NoError(t, err)
	require.Len(t, meals, 2)

	assert.Equal(t, "breakfast", meals[0].Slot)
	assert.Equal(t, "Oatmeal", meals[0].Name)
	assert.Equal(t, []string{"150 g oats", "250 ml milk"}, meals[0].Lines)

	assert.Equal(t, "lunch", meals[1].Slot)
	assert.Equal(t, "Light lunch", meals[1].Description)
}

func TestParseDraftedMealsStripsWrapping(t *testing.T) {
	content := "Here is your plan:\n```json\n[{\"slot\":\"dinner\",\"name\":\"Stir fry\",\"lines\":[\"100 g rice\"]}]\n```\nEnjoy!"

	meals, err := parseDraftedMeals(content)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Stir fry", meals[0].Name)
}

func TestParseDraftedMealsRejectsGarbage(t *testing.T) {
	_, err := parseDraftedMeals("sorry, I cannot help with that")
	assert.Error(t, err)

	_, err = parseDraftedMeals("[]")
	assert.Error(t, err)
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocal_ChickenSignature(t *testing.T) {
	got := Local("Grilled chicken with herbs")
	assert.Equal(t, []string{
		"Chicken breast - 2 lbs",
		"Olive oil - 2 tbsp",
		"Garlic - 3 cloves",
		"Salt and pepper",
	}, got)
}

func TestLocal_MultipleSignaturesKeepRuleOrder(t *testing.T) {
	got := Local("Chicken soup with a side salad")
	assert.Equal(t, []string{
		"Chicken breast - 2 lbs",
		"Olive oil - 2 tbsp",
		"Garlic - 3 cloves",
		"Salt and pepper",
		"Mixed greens - 1 bag",
		"Cherry tomatoes - 1 cup",
		"Cucumber - 1 medium",
		"Salad dressing",
		"Vegetable broth - 32 oz",
		"Carrots - 3 medium",
		"Celery - 3 stalks",
		"Onion - 1 medium",
	}, got)
}

func TestLocal_KeywordSweep(t *testing.T) {
	got := Local("Stir fry tofu with broccoli, soy sauce and rice")
	assert.Equal(t, []string{"Tofu", "Broccoli", "Soy sauce", "Rice"}, got)
}

func TestLocal_SweepSkipsCoveredKeywords(t *testing.T) {
	// pasta 特徵已含 Parmesan、basil、oil，不應重複加入
	got := Local("Pasta with parmesan, basil and olive oil")
	assert.Len(t, got, 4)
	assert.Equal(t, []string{
		"Pasta - 1 lb",
		"Parmesan cheese - 1/2 cup",
		"Fresh basil",
		"Olive oil - 1/4 cup",
	}, got)
}

func TestLocal_FallbackWhenNothingMatches(t *testing.T) {
	for _, in := range []string{"", "   ", "Mystery dish", "12345"} {
		assert.Equal(t, []string{FallbackIngredient}, Local(in), in)
	}
}

func TestLocal_DeterministicAndClean(t *testing.T) {
	inputs := []string{
		"Beef stew with carrots, onion, celery and thyme",
		"SALMON with DILL and butter",
		"Eggs, milk, flour, sugar",
	}
	for _, in := range inputs {
		first := Local(in)
		assert.Equal(t, first, Local(in))
		assert.NotEmpty(t, first)
		seen := map[string]bool{}
		for _, item := range first {
			assert.Equal(t, strings.TrimSpace(item), item)
			assert.NotEmpty(t, item)
			assert.False(t, seen[item], "duplicate %q", item)
			seen[item] = true
		}
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Bell pepper", capitalize("bell pepper"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Élan", capitalize("élan"))
}

package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackIngredient 無任何命中時的唯一項目
const FallbackIngredient = "Check recipe for ingredients"

// signature 食譜特徵：關鍵字出現時整組加入
type signature struct {
	Trigger     string
	Ingredients []string
}

var signatures = []signature{
	{"chicken", []string{"Chicken breast - 2 lbs", "Olive oil - 2 tbsp", "Garlic - 3 cloves", "Salt and pepper"}},
	{"pasta", []string{"Pasta - 1 lb", "Parmesan cheese - 1/2 cup", "Fresh basil", "Olive oil - 1/4 cup"}},
	{"salad", []string{"Mixed greens - 1 bag", "Cherry tomatoes - 1 cup", "Cucumber - 1 medium", "Salad dressing"}},
	{"soup", []string{"Vegetable broth - 32 oz", "Carrots - 3 medium", "Celery - 3 stalks", "Onion - 1 medium"}},
}

// sweepVocabulary 關鍵字掃描用詞彙，依分類順序排列
var sweepVocabulary = [][]string{
	{"chicken", "beef", "pork", "fish", "salmon", "turkey", "lamb", "shrimp", "tofu", "eggs"},
	{"onion", "garlic", "tomato", "carrot", "celery", "bell pepper", "mushroom", "spinach", "broccoli", "zucchini", "cucumber", "lettuce"},
	{"milk", "cheese", "butter", "yogurt", "cream", "parmesan", "mozzarella", "cheddar"},
	{"flour", "sugar", "salt", "pepper", "oil", "vinegar", "soy sauce", "rice", "pasta", "bread"},
	{"basil", "oregano", "thyme", "rosemary", "parsley", "cilantro", "dill", "sage"},
}

// Local 離線啟發式食材抽取。結果不為空且可重現。
func Local(recipeText string) []string {
	text := strings.ToLower(recipeText)
	var out []string

	for _, sig := range signatures {
		if strings.Contains(text, sig.Trigger) {
			out = append(out, sig.Ingredients...)
		}
	}

	for _, group := range sweepVocabulary {
		for _, keyword := range group {
			if !strings.Contains(text, keyword) || covered(out, keyword) {
				continue
			}
			out = append(out, capitalize(keyword))
		}
	}

	if len(out) == 0 {
		return []string{FallbackIngredient}
	}
	return out
}

func covered(items []string, keyword string) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), keyword) {
			return true
		}
	}
	return false
}

// capitalize 只把第一個字元轉大寫
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

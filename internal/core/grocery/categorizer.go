package grocery

import "strings"

// keywordGroup 一個分類及其關鍵字
type keywordGroup struct {
	Category Category
	Keywords []string
}

// categoryKeywords 分類關鍵字表。順序即比對順序：第一個命中的分類勝出。
// 例如 "pepper" 同時出現在 Produce 與 Pantry，永遠歸類為 Produce。
var categoryKeywords = []keywordGroup{
	{CategoryMeatSeafood, []string{"chicken", "beef", "pork", "fish", "salmon", "turkey", "lamb", "shrimp", "meat"}},
	{CategoryProduce, []string{"onion", "garlic", "tomato", "carrot", "celery", "pepper", "mushroom", "spinach", "lettuce", "cucumber", "broccoli"}},
	{CategoryDairy, []string{"milk", "cheese", "butter", "yogurt", "cream", "parmesan", "mozzarella"}},
	{CategoryPantry, []string{"flour", "sugar", "salt", "pepper", "oil", "vinegar", "rice", "pasta", "bread", "sauce"}},
	{CategoryHerbsSpices, []string{"basil", "oregano", "thyme", "rosemary", "parsley", "cilantro", "spice"}},
}

// Categorize 以子字串比對將食材描述歸入分類，無命中時為 Other
func Categorize(description string) Category {
	text := strings.ToLower(description)
	for _, group := range categoryKeywords {
		for _, keyword := range group.Keywords {
			if strings.Contains(text, keyword) {
				return group.Category
			}
		}
	}
	return CategoryOther
}

// CategoryKeywords 回傳某分類的關鍵字副本
func CategoryKeywords(c Category) []string {
	for _, group := range categoryKeywords {
		if group.Category == c {
			return append([]string(nil), group.Keywords...)
		}
	}
	return nil
}

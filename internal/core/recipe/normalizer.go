package recipe

import (
	"strings"

	"meal-planner/internal/pkg/common"
)

// Normalize 將轉換器回傳的未受信任物件收斂為合法的 Recipe。
// 純函式：不做 I/O，對自身輸出再次呼叫結果不變。
// 缺少 title、ingredients 或 instructions 時回傳 *common.ValidationError。
func Normalize(raw RawRecipe) (Recipe, error) {
	return canonicalize(raw.draft(), true)
}

// NormalizeRecipe 對已型別化的食譜套用與 Normalize 相同的規則（標籤重設為 false）
func NormalizeRecipe(r Recipe) (Recipe, error) {
	return canonicalize(r, true)
}

// Canonicalize 套用相同規則但保留使用者整理的標籤值，用於使用者編輯
func Canonicalize(r Recipe) (Recipe, error) {
	return canonicalize(r, false)
}

func canonicalize(in Recipe, resetTags bool) (Recipe, error) {
	r := in.Clone()

	// 修剪文字欄位
	r.Title = strings.TrimSpace(r.Title)
	r.Ingredients = NewLines(r.Ingredients...)
	r.Instructions = NewLines(r.Instructions...)
	r.CookTime = strings.TrimSpace(r.CookTime)
	r.SourceURL = strings.TrimSpace(r.SourceURL)
	r.Image = strings.TrimSpace(r.Image)
	r.Nutrition = trimNutrition(r.Nutrition)

	// 烹調時間
	if r.CookTime == "" {
		r.CookTime = DefaultCookTime
		r.CookTimeAIGenerated = true
	}

	// 標籤
	if resetTags {
		r.Tags = Tags{}
	}

	// 圖片列表
	images := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	r.Images = images

	// 餐別
	if mt, ok := ParseMealType(string(r.MealType)); ok {
		r.MealType = mt
	} else {
		r.MealType = DefaultMealType
	}

	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Ingredients.Empty() {
		missing = append(missing, "ingredients")
	}
	if r.Instructions.Empty() {
		missing = append(missing, "instructions")
	}
	if len(missing) > 0 {
		return Recipe{}, common.NewValidationError(missing...)
	}

	return r, nil
}

func trimNutrition(n Nutrition) Nutrition {
	return Nutrition{
		Calories: strings.TrimSpace(n.Calories),
		Protein:  strings.TrimSpace(n.Protein),
		Carbs:    strings.TrimSpace(n.Carbs),
		Fat:      strings.TrimSpace(n.Fat),
		Fiber:    strings.TrimSpace(n.Fiber),
		Servings: strings.TrimSpace(n.Servings),
	}
}

// CanonicalizeMeal 使用者編輯餐點時使用；保留組成食譜列表
func CanonicalizeMeal(m Meal) (Meal, error) {
	r, err := Canonicalize(m.Recipe)
	if err != nil {
		return Meal{}, err
	}
	return Meal{Recipe: r, Recipes: append([]string{}, m.Recipes...)}, nil
}

package recipe

import (
	"regexp"
	"strconv"
	"strings"

	"meal-planner/internal/pkg/common"
)

// MinMealRecipes 組合餐點至少需要的食譜數
const MinMealRecipes = 2

var (
	hoursPattern   = regexp.MustCompile(`(?i)(\d+)\s*(?:h|hr|hrs|hour|hours)\b`)
	minutesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:m|min|mins|minute|minutes)\b`)
)

// Compose 將多道食譜組合為一份餐點。純函式，不寫入任何儲存。
// 食材與步驟以「標題:」開頭的區段依選擇順序串接，區段之間空一行。
// 熱量、蛋白質、碳水、脂肪、纖維取整數加總（無法解析視為 0），份數取最大值（缺漏視為 1）。
// familyApproved 需全部成立，mealPrep 任一成立即可。
func Compose(selected []Recipe, title string) (Meal, error) {
	if len(selected) < MinMealRecipes {
		return Meal{}, common.NewInsufficientSelection(len(selected), MinMealRecipes)
	}

	var (
		ingredients  []string
		instructions []string
		titles       = make([]string, 0, len(selected))
		ids          = make([]string, 0, len(selected))
		sums         [5]int
		servings     = 0
		family       = true
		mealPrep     = false
		images       []string
		minutes      = 0
		timed        = false
		aiTime       = false
	)

	for idx, r := range selected {
		if idx > 0 {
			ingredients = append(ingredients, "")
			instructions = append(instructions, "")
		}
		ingredients = append(ingredients, r.Title+":")
		ingredients = append(ingredients, r.Ingredients...)
		instructions = append(instructions, r.Title+":")
		instructions = append(instructions, r.Instructions...)

		titles = append(titles, r.Title)
		ids = append(ids, r.ID)

		for i, v := range []string{r.Nutrition.Calories, r.Nutrition.Protein, r.Nutrition.Carbs, r.Nutrition.Fat, r.Nutrition.Fiber} {
			if n, ok := leadingInt(v); ok {
				sums[i] += n
			}
		}
		if n := ParseServings(r.Nutrition.Servings); n > servings {
			servings = n
		}

		family = family && r.Tags.FamilyApproved
		mealPrep = mealPrep || r.Tags.MealPrep

		if r.Image != "" {
			images = append(images, r.Image)
		}
		if m, ok := parseMinutes(r.CookTime); ok {
			minutes += m
			timed = true
			aiTime = aiTime || r.CookTimeAIGenerated
		}
	}

	mealTitle := strings.TrimSpace(title)
	if mealTitle == "" {
		mealTitle = strings.Join(titles, " + ")
	}

	meal := Meal{
		Recipe: Recipe{
			Title:        mealTitle,
			Ingredients:  NewLines(ingredients...),
			Instructions: NewLines(instructions...),
			MealType:     commonMealType(selected),
			Nutrition: Nutrition{
				Calories: strconv.Itoa(sums[0]),
				Protein:  strconv.Itoa(sums[1]),
				Carbs:    strconv.Itoa(sums[2]),
				Fat:      strconv.Itoa(sums[3]),
				Fiber:    strconv.Itoa(sums[4]),
				Servings: strconv.Itoa(servings),
			},
			Tags: Tags{
				FamilyApproved: family,
				MealPrep:       mealPrep,
			},
			Images: []string{},
		},
		Recipes: ids,
	}

	if len(images) > 0 {
		meal.Image = images[0]
		meal.Images = dedupe(images[1:])
	}
	if timed {
		meal.CookTime = strconv.Itoa(minutes) + " Minutes"
		meal.CookTimeAIGenerated = aiTime
	} else {
		meal.CookTime = DefaultCookTime
		meal.CookTimeAIGenerated = true
	}

	return meal, nil
}

// commonMealType 所有食譜餐別相同時沿用，否則為預設餐別
func commonMealType(selected []Recipe) MealType {
	first, ok := ParseMealType(string(selected[0].MealType))
	if !ok {
		return DefaultMealType
	}
	for _, r := range selected[1:] {
		if mt, ok := ParseMealType(string(r.MealType)); !ok || mt != first {
			return DefaultMealType
		}
	}
	return first
}

// parseMinutes 解析 "1 hour 20 minutes"、"45 Minutes"、"1h" 等格式
func parseMinutes(s string) (int, bool) {
	total := 0
	found := false
	for _, m := range hoursPattern.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
		found = true
	}
	for _, m := range minutesPattern.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.Atoi(m[1])
		total += n
		found = true
	}
	return total, found
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

package recipe

import (
	"strings"
)

// MealType 餐別
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
	MealTypeDessert   MealType = "dessert"
	MealTypeDrinks    MealType = "drinks"
)

// DefaultMealType 無法判斷餐別時使用
const DefaultMealType = MealTypeDinner

// DefaultCookTime 來源沒有烹調時間時使用
const DefaultCookTime = "30 Minutes"

// MealTypes 所有允許的餐別
var MealTypes = []MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeDinner,
	MealTypeSnack,
	MealTypeDessert,
	MealTypeDrinks,
}

// ParseMealType 不分大小寫比對餐別
func ParseMealType(s string) (MealType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, mt := range MealTypes {
		if string(mt) == s {
			return mt, true
		}
	}
	return "", false
}

// Nutrition 營養資訊；空字串代表未知，不是 0
type Nutrition struct {
	Calories string `json:"calories" bson:"calories"`
	Protein  string `json:"protein" bson:"protein"`
	Carbs    string `json:"carbs" bson:"carbs"`
	Fat      string `json:"fat" bson:"fat"`
	Fiber    string `json:"fiber" bson:"fiber"`
	Servings string `json:"servings" bson:"servings"`
}

// Tags 使用者整理的標籤，匯入時一律為 false
type Tags struct {
	FamilyApproved bool `json:"familyApproved" bson:"familyApproved"`
	MealPrep       bool `json:"mealPrep" bson:"mealPrep"`
	Grill          bool `json:"grill" bson:"grill"`
	Bake           bool `json:"bake" bson:"bake"`
	Stove          bool `json:"stove" bson:"stove"`
	SlowCooker     bool `json:"slowCooker" bson:"slowCooker"`
	Microwave      bool `json:"microwave" bson:"microwave"`
}

// Recipe 正規化後的食譜
type Recipe struct {
	ID                  string    `json:"id,omitempty"`
	Title               string    `json:"title"`
	Ingredients         Lines     `json:"ingredients"`
	Instructions        Lines     `json:"instructions"`
	MealType            MealType  `json:"mealType"`
	CookTime            string    `json:"cookTime"`
	CookTimeAIGenerated bool      `json:"cookTimeAIGenerated"`
	SourceURL           string    `json:"sourceUrl,omitempty"`
	Image               string    `json:"image,omitempty"`
	Images              []string  `json:"images"`
	Nutrition           Nutrition `json:"nutrition"`
	Tags                Tags      `json:"tags"`
	IsScaledPreview     bool      `json:"isScaledPreview"`
	OriginalID          *string   `json:"originalId"`
}

// Clone 深拷貝，避免呼叫端共用切片
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = r.Ingredients.Clone()
	out.Instructions = r.Instructions.Clone()
	if r.Images != nil {
		out.Images = append([]string{}, r.Images...)
	}
	if r.OriginalID != nil {
		id := *r.OriginalID
		out.OriginalID = &id
	}
	return out
}

// Meal 由多道食譜組合而成，形狀與 Recipe 相同並多了組成食譜的 id 列表
type Meal struct {
	Recipe
	Recipes []string `json:"recipes"`
}

// Clone 深拷貝
func (m Meal) Clone() Meal {
	return Meal{Recipe: m.Recipe.Clone(), Recipes: append([]string{}, m.Recipes...)}
}

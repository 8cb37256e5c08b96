package mongo

import (
	"time"

	"meal-planner/internal/core/recipe"
)

// recipeDocument 食譜文件；食材與步驟以換行文字儲存。
// 除 createdAt 外不使用 omitempty，ReplaceRecipe 的 $set 才能清空欄位
type recipeDocument struct {
	ID                  string           `bson:"_id"`
	Title               string           `bson:"title"`
	Ingredients         string           `bson:"ingredients"`
	Instructions        string           `bson:"instructions"`
	MealType            string           `bson:"mealType"`
	CookTime            string           `bson:"cookTime"`
	CookTimeAIGenerated bool             `bson:"cookTimeAIGenerated"`
	SourceURL           string           `bson:"sourceUrl"`
	Image               string           `bson:"image"`
	Images              []string         `bson:"images"`
	Nutrition           recipe.Nutrition `bson:"nutrition"`
	Tags                recipe.Tags      `bson:"tags"`
	IsScaledPreview     bool             `bson:"isScaledPreview"`
	OriginalID          *string          `bson:"originalId"`
	CreatedAt           time.Time        `bson:"createdAt,omitempty"`
	UpdatedAt           time.Time        `bson:"updatedAt"`
}

// mealDocument 餐點文件；食譜欄位攤平在同一層
type mealDocument struct {
	Recipe  recipeDocument `bson:",inline"`
	Recipes []string       `bson:"recipes"`
}

func toRecipeDocument(r recipe.Recipe) recipeDocument {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return recipeDocument{
		ID:                  r.ID,
		Title:               r.Title,
		Ingredients:         r.Ingredients.String(),
		Instructions:        r.Instructions.String(),
		MealType:            string(r.MealType),
		CookTime:            r.CookTime,
		CookTimeAIGenerated: r.CookTimeAIGenerated,
		SourceURL:           r.SourceURL,
		Image:               r.Image,
		Images:              images,
		Nutrition:           r.Nutrition,
		Tags:                r.Tags,
		IsScaledPreview:     r.IsScaledPreview,
		OriginalID:          r.OriginalID,
	}
}

func (d recipeDocument) toRecipe() recipe.Recipe {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return recipe.Recipe{
		ID:                  d.ID,
		Title:               d.Title,
		Ingredients:         recipe.SplitLines(d.Ingredients),
		Instructions:        recipe.SplitLines(d.Instructions),
		MealType:            recipe.MealType(d.MealType),
		CookTime:            d.CookTime,
		CookTimeAIGenerated: d.CookTimeAIGenerated,
		SourceURL:           d.SourceURL,
		Image:               d.Image,
		Images:              images,
		Nutrition:           d.Nutrition,
		Tags:                d.Tags,
		IsScaledPreview:     d.IsScaledPreview,
		OriginalID:          d.OriginalID,
	}
}

func toMealDocument(m recipe.Meal) mealDocument {
	recipes := m.Recipes
	if recipes == nil {
		recipes = []string{}
	}
	return mealDocument{Recipe: toRecipeDocument(m.Recipe), Recipes: recipes}
}

func (d mealDocument) toMeal() recipe.Meal {
	recipes := d.Recipes
	if recipes == nil {
		recipes = []string{}
	}
	return recipe.Meal{Recipe: d.Recipe.toRecipe(), Recipes: recipes}
}

// changeEvent change stream 事件（只取需要的欄位）
type changeEvent struct {
	OperationType string `bson:"operationType"`
	NS            struct {
		Coll string `bson:"coll"`
	} `bson:"ns"`
	DocumentKey struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

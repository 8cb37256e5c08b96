package persistence

import (
	"context"

	"meal-planner/internal/core/recipe"
)

// 集合名稱
const (
	CollectionRecipes = "recipes"
	CollectionMeals   = "meals"
)

// 變更類型
const (
	OpCreate  = "create"
	OpReplace = "replace"
	OpDelete  = "delete"
)

// Event 儲存內容變更通知
type Event struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
	ID         string `json:"id"`
}

// Store 食譜與餐點的文件儲存。
// 找不到資料時回傳 common.ErrNotFound。
type Store interface {
	CreateRecipe(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error)
	GetRecipe(ctx context.Context, id string) (recipe.Recipe, error)
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	ReplaceRecipe(ctx context.Context, r recipe.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error

	CreateMeal(ctx context.Context, m recipe.Meal) (recipe.Meal, error)
	GetMeal(ctx context.Context, id string) (recipe.Meal, error)
	ListMeals(ctx context.Context) ([]recipe.Meal, error)
	ReplaceMeal(ctx context.Context, m recipe.Meal) error
	DeleteMeal(ctx context.Context, id string) error

	// Watch 訂閱變更，ctx 結束時關閉通道
	Watch(ctx context.Context) (<-chan Event, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

package memory

import (
	"context"
	"sync"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"
)

// Store 行程內儲存，未設定資料庫時使用
type Store struct {
	mu          sync.RWMutex
	recipes     map[string]recipe.Recipe
	recipeOrder []string
	meals       map[string]recipe.Meal
	mealOrder   []string

	subMu       sync.Mutex
	subscribers map[chan persistence.Event]struct{}
}

// NewStore 創建記憶體儲存
func NewStore() *Store {
	return &Store{
		recipes:     make(map[string]recipe.Recipe),
		meals:       make(map[string]recipe.Meal),
		subscribers: make(map[chan persistence.Event]struct{}),
	}
}

// CreateRecipe 儲存新食譜；沒有 id 時產生
func (s *Store) CreateRecipe(_ context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	r = r.Clone()
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}

	s.mu.Lock()
	if _, exists := s.recipes[r.ID]; !exists {
		s.recipeOrder = append(s.recipeOrder, r.ID)
	}
	s.recipes[r.ID] = r
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionRecipes, Op: persistence.OpCreate, ID: r.ID})
	return r.Clone(), nil
}

// GetRecipe 取得食譜
func (s *Store) GetRecipe(_ context.Context, id string) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return recipe.Recipe{}, common.NewNotFound("recipe", id)
	}
	return r.Clone(), nil
}

// ListRecipes 依建立順序列出食譜
func (s *Store) ListRecipes(_ context.Context) ([]recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recipe.Recipe, 0, len(s.recipeOrder))
	for _, id := range s.recipeOrder {
		out = append(out, s.recipes[id].Clone())
	}
	return out, nil
}

// ReplaceRecipe 整筆覆蓋
func (s *Store) ReplaceRecipe(_ context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	if _, ok := s.recipes[r.ID]; !ok {
		s.mu.Unlock()
		return common.NewNotFound("recipe", r.ID)
	}
	s.recipes[r.ID] = r.Clone()
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionRecipes, Op: persistence.OpReplace, ID: r.ID})
	return nil
}

// DeleteRecipe 刪除食譜
func (s *Store) DeleteRecipe(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.recipes[id]; !ok {
		s.mu.Unlock()
		return common.NewNotFound("recipe", id)
	}
	delete(s.recipes, id)
	s.recipeOrder = removeID(s.recipeOrder, id)
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionRecipes, Op: persistence.OpDelete, ID: id})
	return nil
}

// CreateMeal 儲存新餐點
func (s *Store) CreateMeal(_ context.Context, m recipe.Meal) (recipe.Meal, error) {
	m = m.Clone()
	if m.ID == "" {
		m.ID = common.GenerateUUID()
	}

	s.mu.Lock()
	if _, exists := s.meals[m.ID]; !exists {
		s.mealOrder = append(s.mealOrder, m.ID)
	}
	s.meals[m.ID] = m
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionMeals, Op: persistence.OpCreate, ID: m.ID})
	return m.Clone(), nil
}

// GetMeal 取得餐點
func (s *Store) GetMeal(_ context.Context, id string) (recipe.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meals[id]
	if !ok {
		return recipe.Meal{}, common.NewNotFound("meal", id)
	}
	return m.Clone(), nil
}

// ListMeals 依建立順序列出餐點
func (s *Store) ListMeals(_ context.Context) ([]recipe.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recipe.Meal, 0, len(s.mealOrder))
	for _, id := range s.mealOrder {
		out = append(out, s.meals[id].Clone())
	}
	return out, nil
}

// ReplaceMeal 整筆覆蓋
func (s *Store) ReplaceMeal(_ context.Context, m recipe.Meal) error {
	s.mu.Lock()
	if _, ok := s.meals[m.ID]; !ok {
		s.mu.Unlock()
		return common.NewNotFound("meal", m.ID)
	}
	s.meals[m.ID] = m.Clone()
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionMeals, Op: persistence.OpReplace, ID: m.ID})
	return nil
}

// DeleteMeal 刪除餐點
func (s *Store) DeleteMeal(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.meals[id]; !ok {
		s.mu.Unlock()
		return common.NewNotFound("meal", id)
	}
	delete(s.meals, id)
	s.mealOrder = removeID(s.mealOrder, id)
	s.mu.Unlock()

	s.publish(persistence.Event{Collection: persistence.CollectionMeals, Op: persistence.OpDelete, ID: id})
	return nil
}

// Watch 訂閱變更；訂閱者消化太慢時事件會被丟棄
func (s *Store) Watch(ctx context.Context) (<-chan persistence.Event, error) {
	ch := make(chan persistence.Event, 16)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch, nil
}

func (s *Store) publish(ev persistence.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Ping 永遠可用
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close 無需釋放資源
func (s *Store) Close(context.Context) error {
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store MongoDB 文件儲存
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	recipes *mongo.Collection
	meals   *mongo.Collection
	now     func() time.Time
}

// NewStore 連線並測試 MongoDB
func NewStore(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	common.LogInfo("MongoDB 已連線", zap.String("database", cfg.Database))

	return &Store{
		client:  client,
		db:      db,
		recipes: db.Collection(persistence.CollectionRecipes),
		meals:   db.Collection(persistence.CollectionMeals),
		now:     time.Now,
	}, nil
}

// CreateRecipe 儲存新食譜；沒有 id 時產生
func (s *Store) CreateRecipe(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}
	doc := toRecipeDocument(r)
	doc.CreatedAt = s.now()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := s.recipes.InsertOne(ctx, doc); err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return doc.toRecipe(), nil
}

// GetRecipe 取得食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	var doc recipeDocument
	if err := s.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return recipe.Recipe{}, common.NewNotFound("recipe", id)
		}
		return recipe.Recipe{}, fmt.Errorf("failed to get recipe: %w", err)
	}
	return doc.toRecipe(), nil
}

// ListRecipes 依建立時間列出食譜
func (s *Store) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	cur, err := s.recipes.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer cur.Close(ctx)

	var docs []recipeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}

	out := make([]recipe.Recipe, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toRecipe())
	}
	return out, nil
}

// ReplaceRecipe 整筆覆蓋，保留建立時間
func (s *Store) ReplaceRecipe(ctx context.Context, r recipe.Recipe) error {
	doc := toRecipeDocument(r)
	doc.UpdatedAt = s.now()

	res, err := s.recipes.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to replace recipe: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.NewNotFound("recipe", r.ID)
	}
	return nil
}

// DeleteRecipe 刪除食譜
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.recipes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.NewNotFound("recipe", id)
	}
	return nil
}

// CreateMeal 儲存新餐點
func (s *Store) CreateMeal(ctx context.Context, m recipe.Meal) (recipe.Meal, error) {
	if m.ID == "" {
		m.ID = common.GenerateUUID()
	}
	doc := toMealDocument(m)
	doc.Recipe.CreatedAt = s.now()
	doc.Recipe.UpdatedAt = doc.Recipe.CreatedAt

	if _, err := s.meals.InsertOne(ctx, doc); err != nil {
		return recipe.Meal{}, fmt.Errorf("failed to insert meal: %w", err)
	}
	return doc.toMeal(), nil
}

// GetMeal 取得餐點
func (s *Store) GetMeal(ctx context.Context, id string) (recipe.Meal, error) {
	var doc mealDocument
	if err := s.meals.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return recipe.Meal{}, common.NewNotFound("meal", id)
		}
		return recipe.Meal{}, fmt.Errorf("failed to get meal: %w", err)
	}
	return doc.toMeal(), nil
}

// ListMeals 依建立時間列出餐點
func (s *Store) ListMeals(ctx context.Context) ([]recipe.Meal, error) {
	cur, err := s.meals.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mealDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode meals: %w", err)
	}

	out := make([]recipe.Meal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toMeal())
	}
	return out, nil
}

// ReplaceMeal 整筆覆蓋，保留建立時間
func (s *Store) ReplaceMeal(ctx context.Context, m recipe.Meal) error {
	doc := toMealDocument(m)
	doc.Recipe.UpdatedAt = s.now()

	res, err := s.meals.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to replace meal: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.NewNotFound("meal", m.ID)
	}
	return nil
}

// DeleteMeal 刪除餐點
func (s *Store) DeleteMeal(ctx context.Context, id string) error {
	res, err := s.meals.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.NewNotFound("meal", id)
	}
	return nil
}

// Watch 以資料庫層級的 change stream 訂閱變更（需要 replica set）
func (s *Store) Watch(ctx context.Context) (<-chan persistence.Event, error) {
	stream, err := s.db.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	ch := make(chan persistence.Event, 16)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				common.LogWarn("Change stream decode failed", zap.Error(err))
				continue
			}
			op, ok := mapOperation(ev.OperationType)
			if !ok {
				continue
			}
			select {
			case ch <- persistence.Event{Collection: ev.NS.Coll, Op: op, ID: ev.DocumentKey.ID}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			common.LogError("Change stream stopped", zap.Error(err))
		}
	}()

	return ch, nil
}

func mapOperation(op string) (string, bool) {
	switch op {
	case "insert":
		return persistence.OpCreate, true
	case "update", "replace":
		return persistence.OpReplace, true
	case "delete":
		return persistence.OpDelete, true
	default:
		return "", false
	}
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 中斷連線
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

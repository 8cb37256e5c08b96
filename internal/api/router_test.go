package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/core/ai/provider"
	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence/memory"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	soupJSON = `{"title":"Tomato Soup","ingredients":["2 tomatoes","1 cup water"],"instructions":"Chop\nBoil","mealType":"Lunch","cookTime":"","nutrition":{"calories":"200","protein":"4","servings":"2"}}`
	toastJSON = `Sure! {"title":"Toast","ingredients":"bread\nbutter","instructions":"Toast the bread","mealType":"breakfast","cookTime":"5 Minutes","nutrition":{"calories":150,"protein":"3g","servings":"1"}}`
	scaledJSON = `{"title":"Tomato Soup","ingredients":["4 tomatoes","2 cups water"],"instructions":["Chop","Boil"],"mealType":"dinner","nutrition":{"calories":"400","servings":"99"}}`
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	reply  func(prompt string) string
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test", Debug: true},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20, RequestTimeout: 5 * time.Second},
		DedupWindow: time.Millisecond,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{store: memory.NewStore()}
	transformer := provider.TransformerFunc(func(_ context.Context, prompt string, _ provider.Options) (string, error) {
		return env.reply(prompt), nil
	})

	metrics := monitoring.NewMetrics()
	importer := recipeService.NewImporter(transformer, nil, nil, recipeService.ImporterConfig{}, metrics)
	scaler := recipeService.NewScaler(transformer, provider.Options{}, metrics)

	env.router = SetupRouter(cfg, Dependencies{
		Importer: importer,
		Scaler:   scaler,
		Store:    env.store,
		Metrics:  metrics,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestImportListAndEdit(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.reply = func(string) string { return soupJSON }

	w := env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"tomato soup, 2 tomatoes, boil"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	soup := decode[recipeService.Recipe](t, w)
	assert.NotEmpty(t, soup.ID)
	assert.Equal(t, recipeService.MealTypeLunch, soup.MealType)
	assert.Equal(t, "30 Minutes", soup.CookTime)
	assert.True(t, soup.CookTimeAIGenerated)
	assert.Equal(t, recipeService.Lines{"Chop", "Boil"}, soup.Instructions)

	env.reply = func(string) string { return toastJSON }
	w = env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"toast"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/recipes?q=tmt", "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]recipeService.Recipe](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "Tomato Soup", found[0].Title)

	w = env.do(t, http.MethodGet, "/api/v1/recipes?mealType=BREAKFAST", "")
	require.Equal(t, http.StatusOK, w.Code)
	found = decode[[]recipeService.Recipe](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "Toast", found[0].Title)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/recipes?mealType=brunch", "").Code)

	edit := soup
	edit.Title = "  Tomato Soup Deluxe "
	edit.Tags.FamilyApproved = true
	edit.MealType = "snack-ish"
	body, err := json.Marshal(edit)
	require.NoError(t, err)

	w = env.do(t, http.MethodPut, "/api/v1/recipes/"+soup.ID, string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[recipeService.Recipe](t, w)
	assert.Equal(t, "Tomato Soup Deluxe", updated.Title)
	assert.True(t, updated.Tags.FamilyApproved)
	assert.Equal(t, recipeService.DefaultMealType, updated.MealType)

	w = env.do(t, http.MethodPut, "/api/v1/recipes/"+soup.ID, `{"title":"x","ingredients":"","instructions":"y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/recipes/"+soup.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/recipes/"+soup.ID, "").Code)
}

func TestImportErrors(t *testing.T) {
	env := newTestEnv(t, testConfig())

	env.reply = func(string) string { return "I could not find a recipe." }
	w := env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "PARSE_ERROR")

	w = env.do(t, http.MethodPost, "/api/v1/recipes/import/url", `{"url":"ftp://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScaleModes(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.reply = func(string) string { return soupJSON }

	w := env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"soup"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	soup := decode[recipeService.Recipe](t, w)

	var prompts []string
	env.reply = func(p string) string {
		prompts = append(prompts, p)
		return scaledJSON
	}

	w = env.do(t, http.MethodPost, "/api/v1/recipes/"+soup.ID+"/scale", `{"servings":4}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[recipeService.Recipe](t, w)
	assert.Equal(t, "4", preview.Nutrition.Servings)
	assert.True(t, preview.IsScaledPreview)
	require.NotNil(t, preview.OriginalID)
	assert.Equal(t, soup.ID, *preview.OriginalID)
	assert.Equal(t, recipeService.MealTypeLunch, preview.MealType)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "from 2 servings to 4 servings")

	list, err := env.store.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodPost, "/api/v1/recipes/"+soup.ID+"/scale", `{"servings":6,"mode":"new"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	detached := decode[recipeService.Recipe](t, w)
	assert.NotEqual(t, soup.ID, detached.ID)
	assert.False(t, detached.IsScaledPreview)
	assert.Nil(t, detached.OriginalID)

	w = env.do(t, http.MethodPost, "/api/v1/recipes/"+soup.ID+"/scale", `{"servings":8,"mode":"replace"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := env.store.GetRecipe(context.Background(), soup.ID)
	require.NoError(t, err)
	assert.Equal(t, "8", got.Nutrition.Servings)
	assert.False(t, got.IsScaledPreview)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/recipes/"+soup.ID+"/scale", `{"servings":2,"mode":"double"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/recipes/missing/scale", `{"servings":2}`).Code)
}

func TestComposeMeal(t *testing.T) {
	env := newTestEnv(t, testConfig())

	env.reply = func(string) string { return soupJSON }
	soup := decode[recipeService.Recipe](t, env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"soup"}`))
	env.reply = func(string) string { return toastJSON }
	toast := decode[recipeService.Recipe](t, env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"toast"}`))

	w := env.do(t, http.MethodPost, "/api/v1/meals", `{"recipeIds":["`+soup.ID+`"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_SELECTION")

	w = env.do(t, http.MethodPost, "/api/v1/meals", `{"recipeIds":["`+soup.ID+`","`+toast.ID+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	meal := decode[recipeService.Meal](t, w)
	assert.Equal(t, "Tomato Soup + Toast", meal.Title)
	assert.Equal(t, []string{soup.ID, toast.ID}, meal.Recipes)
	assert.Equal(t, "350", meal.Nutrition.Calories)
	assert.Equal(t, "7", meal.Nutrition.Protein)
	assert.Equal(t, "2", meal.Nutrition.Servings)
	assert.Equal(t, "35 Minutes", meal.CookTime)
	assert.Equal(t, recipeService.Lines{"Tomato Soup:", "2 tomatoes", "1 cup water", "", "Toast:", "bread", "butter"}, meal.Ingredients)

	w = env.do(t, http.MethodGet, "/api/v1/meals/"+meal.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, meal, decode[recipeService.Meal](t, w))

	env.reply = func(string) string { return scaledJSON }
	w = env.do(t, http.MethodPost, "/api/v1/meals/"+meal.ID+"/scale", `{"servings":4}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	scaled := decode[recipeService.Meal](t, w)
	assert.Equal(t, meal.Recipes, scaled.Recipes)
	assert.Equal(t, "4", scaled.Nutrition.Servings)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/meals/"+meal.ID, "").Code)
	meals := decode[[]recipeService.Meal](t, env.do(t, http.MethodGet, "/api/v1/meals", ""))
	assert.Empty(t, meals)
}

func TestMutationsRequirePrivilege(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, JWTSecret: "s3cret", MutatePrivilege: "edit"}
	env := newTestEnv(t, cfg)
	env.reply = func(string) string { return soupJSON }

	w := env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"soup"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/recipes", "").Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"privileges": []string{"edit"}}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/v1/recipes/import/text", `{"text":"soup"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestOperationalRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig())

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/live", "").Code)

	w := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "meal_planner_http_requests_total")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

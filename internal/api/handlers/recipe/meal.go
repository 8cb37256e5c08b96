package recipe

import (
	"net/http"
	"strings"

	domain "meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ComposeRequest 組合餐點請求；食譜依給定順序組合
type ComposeRequest struct {
	RecipeIDs []string `json:"recipeIds"`
	Title     string   `json:"title"`
}

// HandleComposeMeal 載入選定的食譜並組合成餐點
func (h *Handler) HandleComposeMeal(c *gin.Context) {
	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	// 先檢查數量，避免無謂的讀取
	if len(req.RecipeIDs) < domain.MinMealRecipes {
		common.WriteError(c, common.NewInsufficientSelection(len(req.RecipeIDs), domain.MinMealRecipes))
		return
	}

	ctx := c.Request.Context()
	selected := make([]domain.Recipe, 0, len(req.RecipeIDs))
	for _, id := range req.RecipeIDs {
		rec, err := h.store.GetRecipe(ctx, strings.TrimSpace(id))
		if err != nil {
			h.fail(c, "讀取食譜失敗", err)
			return
		}
		selected = append(selected, rec)
	}

	meal, err := domain.Compose(selected, req.Title)
	if err != nil {
		h.fail(c, "組合餐點失敗", err)
		return
	}

	saved, err := h.store.CreateMeal(ctx, meal)
	if err != nil {
		h.fail(c, "儲存餐點失敗", err)
		return
	}

	h.metrics.MealComposed()
	common.LogInfo("餐點組合完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("meal_id", saved.ID),
		zap.Int("recipes", len(saved.Recipes)),
	)
	c.JSON(http.StatusCreated, saved)
}

// HandleListMeals 列出餐點
func (h *Handler) HandleListMeals(c *gin.Context) {
	list, err := h.store.ListMeals(c.Request.Context())
	if err != nil {
		h.fail(c, "讀取餐點失敗", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// HandleGetMeal 取得單一餐點
func (h *Handler) HandleGetMeal(c *gin.Context) {
	meal, err := h.store.GetMeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "讀取餐點失敗", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// HandleReplaceMeal 整筆更新餐點
func (h *Handler) HandleReplaceMeal(c *gin.Context) {
	var body domain.Meal
	if err := c.ShouldBindJSON(&body); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	meal, err := domain.CanonicalizeMeal(body)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	meal.ID = c.Param("id")

	if err := h.store.ReplaceMeal(c.Request.Context(), meal); err != nil {
		h.fail(c, "更新餐點失敗", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// HandleDeleteMeal 刪除餐點
func (h *Handler) HandleDeleteMeal(c *gin.Context) {
	if err := h.store.DeleteMeal(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "刪除餐點失敗", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleScaleMeal 換算餐點份量，模式同食譜
func (h *Handler) HandleScaleMeal(c *gin.Context) {
	req, mode, ok := bindScale(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	meal, err := h.store.GetMeal(ctx, id)
	if err != nil {
		h.fail(c, "讀取餐點失敗", err)
		return
	}

	preview, err := h.scaler.ScaleMeal(ctx, meal, req.Servings)
	if err != nil {
		h.fail(c, "份量換算失敗", err)
		return
	}

	switch mode {
	case domain.ScaleModeNew:
		detached := domain.Meal{Recipe: domain.SaveAsNew(preview.Recipe, common.GenerateUUID()), Recipes: preview.Recipes}
		saved, err := h.store.CreateMeal(ctx, detached)
		if err != nil {
			h.fail(c, "儲存餐點失敗", err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	case domain.ScaleModeReplace:
		replaced := domain.Meal{Recipe: domain.ReplaceOriginal(preview.Recipe, id), Recipes: preview.Recipes}
		if err := h.store.ReplaceMeal(ctx, replaced); err != nil {
			h.fail(c, "更新餐點失敗", err)
			return
		}
		c.JSON(http.StatusOK, replaced)
	default:
		c.JSON(http.StatusOK, preview)
	}
}

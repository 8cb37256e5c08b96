package recipe

import (
	"net/http"
	"strings"

	domain "meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// ImportURLRequest 由網址匯入食譜
type ImportURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ImportTextRequest 由貼上的文字匯入食譜
type ImportTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ScaleRequest 份量換算請求；mode 預設為 preview
type ScaleRequest struct {
	Servings int    `json:"servings" binding:"required"`
	Mode     string `json:"mode"`
}

// Handler 食譜與餐點處理程序
type Handler struct {
	importer *domain.Importer
	scaler   *domain.Scaler
	store    persistence.Store
	metrics  *monitoring.Metrics
}

// NewHandler 創建新的處理程序
func NewHandler(importer *domain.Importer, scaler *domain.Scaler, store persistence.Store, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		importer: importer,
		scaler:   scaler,
		store:    store,
		metrics:  metrics,
	}
}

// HandleImportURL 由網址匯入並儲存食譜
func (h *Handler) HandleImportURL(c *gin.Context) {
	var req ImportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	common.LogInfo("開始匯入食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("source", "url"),
		zap.String("url", req.URL),
	)

	rec, err := h.importer.ImportFromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, "匯入食譜失敗", err)
		return
	}
	h.createRecipe(c, rec)
}

// HandleImportText 由文字匯入並儲存食譜
func (h *Handler) HandleImportText(c *gin.Context) {
	var req ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	common.LogInfo("開始匯入食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("source", "text"),
		zap.Int("text_length", len(req.Text)),
	)

	rec, err := h.importer.ImportFromText(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, "匯入食譜失敗", err)
		return
	}
	h.createRecipe(c, rec)
}

func (h *Handler) createRecipe(c *gin.Context, rec domain.Recipe) {
	rec.ID = ""
	saved, err := h.store.CreateRecipe(c.Request.Context(), rec)
	if err != nil {
		h.fail(c, "儲存食譜失敗", err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// HandleListRecipes 列出食譜；q 以模糊比對標題，mealType 篩選餐別
func (h *Handler) HandleListRecipes(c *gin.Context) {
	list, err := h.store.ListRecipes(c.Request.Context())
	if err != nil {
		h.fail(c, "讀取食譜失敗", err)
		return
	}

	if raw := strings.TrimSpace(c.Query("mealType")); raw != "" {
		mt, ok := domain.ParseMealType(raw)
		if !ok {
			common.WriteError(c, common.NewInvalidArgument("unknown meal type %q", raw))
			return
		}
		filtered := list[:0]
		for _, r := range list {
			if r.MealType == mt {
				filtered = append(filtered, r)
			}
		}
		list = filtered
	}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list = searchTitles(q, list)
	}

	c.JSON(http.StatusOK, list)
}

// recipeTitles 讓 fuzzy 以標題比對
type recipeTitles []domain.Recipe

func (t recipeTitles) String(i int) string { return t[i].Title }
func (t recipeTitles) Len() int            { return len(t) }

// searchTitles 依比對分數排序
func searchTitles(q string, list []domain.Recipe) []domain.Recipe {
	matches := fuzzy.FindFrom(q, recipeTitles(list))
	out := make([]domain.Recipe, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out
}

// HandleGetRecipe 取得單一食譜
func (h *Handler) HandleGetRecipe(c *gin.Context) {
	rec, err := h.store.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "讀取食譜失敗", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleReplaceRecipe 整筆更新食譜，保留使用者的標籤
func (h *Handler) HandleReplaceRecipe(c *gin.Context) {
	var body domain.Recipe
	if err := c.ShouldBindJSON(&body); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	rec, err := domain.Canonicalize(body)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	rec.ID = c.Param("id")

	if err := h.store.ReplaceRecipe(c.Request.Context(), rec); err != nil {
		h.fail(c, "更新食譜失敗", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleDeleteRecipe 刪除食譜
func (h *Handler) HandleDeleteRecipe(c *gin.Context) {
	if err := h.store.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "刪除食譜失敗", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleScaleRecipe 換算食譜份量並依 mode 預覽、另存或覆蓋
func (h *Handler) HandleScaleRecipe(c *gin.Context) {
	req, mode, ok := bindScale(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.fail(c, "讀取食譜失敗", err)
		return
	}

	preview, err := h.scaler.Scale(ctx, rec, req.Servings)
	if err != nil {
		h.fail(c, "份量換算失敗", err)
		return
	}

	switch mode {
	case domain.ScaleModeNew:
		saved, err := h.store.CreateRecipe(ctx, domain.SaveAsNew(preview, common.GenerateUUID()))
		if err != nil {
			h.fail(c, "儲存食譜失敗", err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	case domain.ScaleModeReplace:
		replaced := domain.ReplaceOriginal(preview, id)
		if err := h.store.ReplaceRecipe(ctx, replaced); err != nil {
			h.fail(c, "更新食譜失敗", err)
			return
		}
		c.JSON(http.StatusOK, replaced)
	default:
		c.JSON(http.StatusOK, preview)
	}
}

func bindScale(c *gin.Context) (ScaleRequest, domain.ScaleMode, bool) {
	var req ScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewInvalidArgument("invalid request body: %v", err))
		return req, "", false
	}
	mode, err := domain.ParseScaleMode(req.Mode)
	if err != nil {
		common.WriteError(c, err)
		return req, "", false
	}
	return req, mode, true
}

// fail 記錄並寫出錯誤響應
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status, _ := common.HTTPError(err)
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		common.LogError(msg, fields...)
	} else {
		common.LogWarn(msg, fields...)
	}
	_ = c.Error(err)
	common.WriteError(c, err)
}

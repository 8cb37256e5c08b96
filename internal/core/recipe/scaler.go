package recipe

import (
	"context"
	"strconv"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ScaleMode 換算結果的處理方式
type ScaleMode string

const (
	// ScaleModePreview 只回傳預覽，不儲存
	ScaleModePreview ScaleMode = "preview"
	// ScaleModeNew 另存為新食譜
	ScaleModeNew ScaleMode = "new"
	// ScaleModeReplace 覆蓋原食譜
	ScaleModeReplace ScaleMode = "replace"
)

// ParseScaleMode 解析模式，空字串為 preview
func ParseScaleMode(s string) (ScaleMode, error) {
	switch ScaleMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScaleModePreview:
		return ScaleModePreview, nil
	case ScaleModeNew:
		return ScaleModeNew, nil
	case ScaleModeReplace:
		return ScaleModeReplace, nil
	default:
		return "", common.NewInvalidArgument("unknown scale mode %q", s)
	}
}

// Scaler 份量換算
type Scaler struct {
	transformer provider.Transformer
	opts        provider.Options
	metrics     *monitoring.Metrics
}

// NewScaler 創建換算器
func NewScaler(transformer provider.Transformer, opts provider.Options, metrics *monitoring.Metrics) *Scaler {
	return &Scaler{transformer: transformer, opts: opts, metrics: metrics}
}

// Scale 將食譜換算為目標份數並回傳預覽。
// 份數由程式寫入，不採用轉換器回報的值；標籤與餐別沿用原食譜。
func (s *Scaler) Scale(ctx context.Context, rec Recipe, targetServings int) (Recipe, error) {
	if targetServings <= 0 {
		return Recipe{}, common.NewInvalidArgument("target servings must be positive, got %d", targetServings)
	}

	current := ParseServings(rec.Nutrition.Servings)
	factor := float64(targetServings) / float64(current)

	prompt := BuildScalingPrompt(rec, current, targetServings, factor)
	completion, err := s.transformer.Complete(ctx, prompt, s.opts)
	if err != nil {
		s.metrics.RecipeScale(outcome(err))
		return Recipe{}, err
	}

	raw, err := ParseCompletion(completion)
	if err != nil {
		s.metrics.RecipeScale(outcome(err))
		return Recipe{}, err
	}

	// 轉換器沒給烹調時間時沿用原值，避免被預設值覆蓋
	if strings.TrimSpace(string(raw.CookTime)) == "" {
		raw.CookTime = flexString(rec.CookTime)
		raw.CookTimeAIGenerated = flexBool(rec.CookTimeAIGenerated)
	}

	scaled, err := Normalize(raw)
	if err != nil {
		s.metrics.RecipeScale(outcome(err))
		return Recipe{}, err
	}

	scaled.Nutrition.Servings = strconv.Itoa(targetServings)
	scaled.Tags = rec.Tags
	scaled.MealType = rec.MealType
	if _, ok := ParseMealType(string(scaled.MealType)); !ok {
		scaled.MealType = DefaultMealType
	}
	scaled.SourceURL = rec.SourceURL
	scaled.Image = rec.Image
	scaled.Images = append([]string{}, rec.Images...)
	scaled.ID = ""
	scaled.IsScaledPreview = true
	scaled.OriginalID = nil
	if rec.ID != "" {
		id := rec.ID
		scaled.OriginalID = &id
	}

	s.metrics.RecipeScale("success")
	common.LogInfo("份量換算完成",
		zap.String("original_id", rec.ID),
		zap.Int("current_servings", current),
		zap.Int("target_servings", targetServings),
	)
	return scaled, nil
}

// ScaleMeal 換算餐點；組成食譜列表保持不變
func (s *Scaler) ScaleMeal(ctx context.Context, meal Meal, targetServings int) (Meal, error) {
	scaled, err := s.Scale(ctx, meal.Recipe, targetServings)
	if err != nil {
		return Meal{}, err
	}
	return Meal{Recipe: scaled, Recipes: append([]string{}, meal.Recipes...)}, nil
}

// SaveAsNew 將預覽轉為獨立的新食譜
func SaveAsNew(preview Recipe, newID string) Recipe {
	r := preview.Clone()
	r.ID = newID
	r.IsScaledPreview = false
	r.OriginalID = nil
	return r
}

// ReplaceOriginal 以預覽內容覆蓋原食譜，沿用原 id
func ReplaceOriginal(preview Recipe, originalID string) Recipe {
	r := preview.Clone()
	r.ID = originalID
	r.IsScaledPreview = false
	r.OriginalID = nil
	return r
}

// ParseServings 取出份數字串開頭的整數，無法解析或不為正數時為 1
func ParseServings(s string) int {
	if n, ok := leadingInt(s); ok && n > 0 {
		return n
	}
	return 1
}

// leadingInt 類似 parseInt：略過前導空白，讀取開頭的數字
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

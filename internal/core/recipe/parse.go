package recipe

import (
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ParseCompletion 從轉換器的自然語言輸出中取出第一個 JSON 物件並解碼。
// 找不到物件或解碼失敗時回傳 *common.ParseError。
func ParseCompletion(text string) (RawRecipe, error) {
	obj, ok := common.ExtractJSONObject(text)
	if !ok {
		common.LogDebug("AI 回應中沒有 JSON 物件", zap.Int("ai_response_length", len(text)))
		return RawRecipe{}, common.NewParseError("no JSON object found in completion", nil)
	}

	var raw RawRecipe
	if err := common.ParseJSON(obj, &raw); err != nil {
		common.LogDebug("AI 回應 JSON 解析失敗",
			zap.Int("ai_response_length", len(text)),
			zap.Error(err),
		)
		return RawRecipe{}, common.NewParseError("malformed JSON object", err)
	}

	return raw, nil
}

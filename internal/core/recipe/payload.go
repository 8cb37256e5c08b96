package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawRecipe 轉換器回傳的未受信任食譜物件。
// 欄位型別寬鬆：缺漏、型別錯誤或多餘欄位都容許，交由 Normalize 收斂。
type RawRecipe struct {
	Title               flexString   `json:"title"`
	Ingredients         flexLines    `json:"ingredients"`
	Instructions        flexLines    `json:"instructions"`
	MealType            flexString   `json:"mealType"`
	CookTime            flexString   `json:"cookTime"`
	CookTimeAIGenerated flexBool     `json:"cookTimeAIGenerated"`
	SourceURL           flexString   `json:"sourceUrl"`
	Image               flexString   `json:"image"`
	Images              flexLines    `json:"images"`
	Nutrition           rawNutrition `json:"nutrition"`
	// Tags 只為了容許欄位存在；匯入時一律重設
	Tags json.RawMessage `json:"tags"`
}

type rawNutrition struct {
	Calories flexString `json:"calories"`
	Protein  flexString `json:"protein"`
	Carbs    flexString `json:"carbs"`
	Fat      flexString `json:"fat"`
	Fiber    flexString `json:"fiber"`
	Servings flexString `json:"servings"`
}

// UnmarshalJSON 容許 nutrition 為 null 或非物件
func (n *rawNutrition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*n = rawNutrition{}
		return nil
	}
	type plain rawNutrition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = rawNutrition(p)
	return nil
}

// draft 轉為尚未正規化的 Recipe
func (r RawRecipe) draft() Recipe {
	return Recipe{
		Title:               string(r.Title),
		Ingredients:         Lines(r.Ingredients),
		Instructions:        Lines(r.Instructions),
		MealType:            MealType(r.MealType),
		CookTime:            string(r.CookTime),
		CookTimeAIGenerated: bool(r.CookTimeAIGenerated),
		SourceURL:           string(r.SourceURL),
		Image:               string(r.Image),
		Images:              []string(r.Images),
		Nutrition: Nutrition{
			Calories: string(r.Nutrition.Calories),
			Protein:  string(r.Nutrition.Protein),
			Carbs:    string(r.Nutrition.Carbs),
			Fat:      string(r.Nutrition.Fat),
			Fiber:    string(r.Nutrition.Fiber),
			Servings: string(r.Nutrition.Servings),
		},
	}
}

// flexString 接受字串、數字、布林或字串陣列（以換行連接）
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = flexString(val)
	case json.Number:
		*s = flexString(formatNumber(val))
	case bool:
		*s = flexString(strconv.FormatBool(val))
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, scalarText(item))
		}
		*s = flexString(strings.Join(parts, "\n"))
	default:
		return fmt.Errorf("unsupported value for text field: %s", string(data))
	}
	return nil
}

// flexLines 接受換行字串或陣列
type flexLines Lines

func (l *flexLines) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case nil:
		*l = nil
	case string:
		*l = flexLines(SplitLines(val))
	case json.Number:
		*l = flexLines(NewLines(formatNumber(val)))
	case []interface{}:
		raw := make([]string, 0, len(val))
		for _, item := range val {
			raw = append(raw, scalarText(item))
		}
		*l = flexLines(NewLines(raw...))
	default:
		return fmt.Errorf("unsupported value for line list: %s", string(data))
	}
	return nil
}

// flexBool 接受布林或 "true"/"yes" 字串
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case bool:
		*b = flexBool(val)
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			*b = true
		default:
			*b = false
		}
	case float64:
		*b = val != 0
	default:
		*b = false
	}
	return nil
}

// scalarText 陣列元素轉為文字；物件以其字串值連接
func scalarText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case map[string]interface{}:
		if t, ok := val["text"].(string); ok {
			return t
		}
		if t := ingredientText(val); t != "" {
			return t
		}
		b, _ := json.Marshal(val)
		return string(b)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// ingredientParts 食材物件依序組合的欄位
var ingredientParts = []string{"quantity", "amount", "unit", "name"}

// ingredientText 將 {"quantity":"2 cups","name":"flour"} 之類的物件組成 "2 cups flour"
func ingredientText(obj map[string]interface{}) string {
	parts := make([]string, 0, len(ingredientParts))
	for _, key := range ingredientParts {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch v.(type) {
		case string, json.Number:
			if t := strings.TrimSpace(scalarText(v)); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// formatNumber 去除多餘的小數位（250.0 -> 250）
func formatNumber(n json.Number) string {
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

package recipe

import (
	"fmt"
	"strings"
)

// recordSchema 要求轉換器回傳的 JSON 形狀
const recordSchema = `{
"title": "Recipe title",
"ingredients": ["one ingredient per entry, with quantity and unit"],
"instructions": ["one step per entry"],
"mealType": "breakfast | lunch | dinner | snack | dessert | drinks",
"cookTime": "e.g. 45 Minutes",
"cookTimeAIGenerated": false,
"image": "main image URL or empty string",
"nutrition": {
	"calories": "per serving",
	"protein": "per serving",
	"carbs": "per serving",
	"fat": "per serving",
	"fiber": "per serving",
	"servings": "number of servings (required)"
},
"tags": {
	"familyApproved": false,
	"mealPrep": false,
	"grill": false,
	"bake": false,
	"stove": false,
	"slowCooker": false,
	"microwave": false
}
}`

func mealTypeList() string {
	names := make([]string, len(MealTypes))
	for i, mt := range MealTypes {
		names[i] = string(mt)
	}
	return strings.Join(names, ", ")
}

// extractionRules 擷取提示共用的規則
func extractionRules() string {
	return fmt.Sprintf(`Rules:
1. Copy ingredients and instructions from the source; do not invent ingredients or steps.
2. Every tag in "tags" must be false.
3. "mealType" must be one of: %s. Use "%s" unless the source clearly states otherwise.
4. If a total cook time is literally present, copy it into "cookTime" and set "cookTimeAIGenerated" to false. Otherwise estimate it and set "cookTimeAIGenerated" to true.
5. If nutrition is not present, estimate it per serving.
6. "nutrition.servings" must always be present.
7. Respond with a single JSON object only, using double quotes for every key and string.

Return JSON in this shape:
%s`, mealTypeList(), DefaultMealType, recordSchema)
}

// BuildURLExtractionPrompt 由網址與頁面內容建立擷取提示；pageContent 可為空
func BuildURLExtractionPrompt(sourceURL, pageContent string) string {
	var b strings.Builder
	b.WriteString("Extract the recipe from the following web page.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", sourceURL)
	if pageContent != "" {
		fmt.Fprintf(&b, "\nPage content:\n%s\n", pageContent)
	} else {
		b.WriteString("\nThe page content could not be retrieved. Use what you know about this URL.\n")
	}
	b.WriteString("\n")
	b.WriteString(extractionRules())
	return b.String()
}

// BuildTextExtractionPrompt 由使用者貼上的文字建立擷取提示
func BuildTextExtractionPrompt(text string) string {
	return fmt.Sprintf("Extract the recipe from the following text.\n\nText:\n%s\n\n%s", text, extractionRules())
}

// BuildScalingPrompt 建立份量換算提示
func BuildScalingPrompt(r Recipe, currentServings, targetServings int, factor float64) string {
	return fmt.Sprintf(`Rescale this recipe from %d servings to %d servings (factor %s).

Title: %s

Ingredients:
%s

Instructions:
%s

Nutrition per serving: calories %s, protein %s, carbs %s, fat %s, fiber %s

Rules:
1. Adjust every ingredient quantity proportionally.
2. Keep the same set of ingredients and the same steps in the same order.
3. Update serving-sensitive instruction text such as pan or pot sizes and batch cook times.
4. Nutrition values are per serving: keep calories, protein, carbs, fat and fiber unchanged, and set "nutrition.servings" to "%d".
5. Respond with a single JSON object only, using double quotes for every key and string.

Return JSON in this shape:
%s`,
		currentServings, targetServings, formatFactor(factor),
		r.Title,
		r.Ingredients.String(),
		r.Instructions.String(),
		orUnknown(r.Nutrition.Calories), orUnknown(r.Nutrition.Protein), orUnknown(r.Nutrition.Carbs),
		orUnknown(r.Nutrition.Fat), orUnknown(r.Nutrition.Fiber),
		targetServings,
		recordSchema,
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func formatFactor(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}

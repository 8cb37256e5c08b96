package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleRecipe() Recipe {
	return Recipe{
		ID:                  "r-1",
		Title:               "Pancakes",
		Ingredients:         Lines{"1 cup flour", "1 egg"},
		Instructions:        Lines{"Mix", "Fry"},
		MealType:            MealTypeBreakfast,
		CookTime:            "20 Minutes",
		CookTimeAIGenerated: false,
		SourceURL:           "https://example.com/pancakes",
		Image:               "https://example.com/pancakes.jpg",
		Images:              []string{},
		Nutrition:           Nutrition{Calories: "300", Servings: "2"},
		Tags:                Tags{FamilyApproved: true, Stove: true},
	}
}

var scaleOpts = provider.Options{Temperature: 0.1, MaxTokens: 1500}

func TestScale_StampsServingsAndCopiesTags(t *testing.T) {
	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "from 2 servings to 6 servings (factor 3)") &&
			strings.Contains(p, "1 cup flour\n1 egg")
	}), scaleOpts).Return(`{"title":"Pancakes","ingredients":["3 cups flour","3 eggs"],"instructions":["Mix","Fry in batches"],
		"mealType":"dinner","nutrition":{"calories":"300","servings":"5"},"tags":{"grill":true}}`, nil)

	s := NewScaler(transformer, scaleOpts, nil)
	src := sampleRecipe()
	out, err := s.Scale(context.Background(), src, 6)
	require.NoError(t, err)

	assert.Equal(t, "6", out.Nutrition.Servings, "servings stamped regardless of transformer output")
	assert.Equal(t, src.Tags, out.Tags)
	assert.Equal(t, MealTypeBreakfast, out.MealType)
	assert.Equal(t, Lines{"3 cups flour", "3 eggs"}, out.Ingredients)
	assert.Equal(t, "20 Minutes", out.CookTime, "missing cook time falls back to the source value")
	assert.True(t, out.IsScaledPreview)
	require.NotNil(t, out.OriginalID)
	assert.Equal(t, "r-1", *out.OriginalID)
	assert.Empty(t, out.ID)
	assert.Equal(t, src.Image, out.Image)

	// source untouched
	assert.Equal(t, "2", src.Nutrition.Servings)
}

func TestScale_InvalidTarget(t *testing.T) {
	transformer := &mockTransformer{}
	s := NewScaler(transformer, scaleOpts, nil)

	for _, target := range []int{0, -3} {
		_, err := s.Scale(context.Background(), sampleRecipe(), target)
		var invalid *common.InvalidArgumentError
		require.True(t, errors.As(err, &invalid))
	}
	transformer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestScale_MissingServingsTreatedAsOne(t *testing.T) {
	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "from 1 servings to 4 servings (factor 4)")
	}), mock.Anything).Return(`{"title":"x","ingredients":"a","instructions":"b"}`, nil)

	rec := sampleRecipe()
	rec.Nutrition.Servings = "a few"
	out, err := NewScaler(transformer, scaleOpts, nil).Scale(context.Background(), rec, 4)
	require.NoError(t, err)
	assert.Equal(t, "4", out.Nutrition.Servings)
}

func TestScale_PropagatesErrors(t *testing.T) {
	t.Run("parse error", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("no json here", nil)

		_, err := NewScaler(transformer, scaleOpts, nil).Scale(context.Background(), sampleRecipe(), 4)
		var perr *common.ParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("validation error", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":"Pancakes","ingredients":[],"instructions":["Mix"]}`, nil)

		_, err := NewScaler(transformer, scaleOpts, nil).Scale(context.Background(), sampleRecipe(), 4)
		assert.True(t, common.IsValidationError(err))
	})
}

func TestScaleMeal_KeepsRecipeIDs(t *testing.T) {
	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"title":"Brunch","ingredients":"Pancakes:\n2 cups flour","instructions":"Pancakes:\nMix"}`, nil)

	meal := Meal{Recipe: sampleRecipe(), Recipes: []string{"a", "b"}}
	meal.ID = "m-1"

	out, err := NewScaler(transformer, scaleOpts, nil).ScaleMeal(context.Background(), meal, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Recipes)
	assert.Equal(t, "4", out.Nutrition.Servings)
	require.NotNil(t, out.OriginalID)
	assert.Equal(t, "m-1", *out.OriginalID)
}

func TestSaveAsNewAndReplace(t *testing.T) {
	id := "r-1"
	preview := sampleRecipe()
	preview.ID = ""
	preview.IsScaledPreview = true
	preview.OriginalID = &id

	fresh := SaveAsNew(preview, "r-2")
	assert.Equal(t, "r-2", fresh.ID)
	assert.False(t, fresh.IsScaledPreview)
	assert.Nil(t, fresh.OriginalID)

	replaced := ReplaceOriginal(preview, "r-1")
	assert.Equal(t, "r-1", replaced.ID)
	assert.False(t, replaced.IsScaledPreview)
	assert.Nil(t, replaced.OriginalID)

	assert.True(t, preview.IsScaledPreview, "preview untouched")
}

func TestParseScaleMode(t *testing.T) {
	for in, want := range map[string]ScaleMode{"": ScaleModePreview, "Preview": ScaleModePreview, "new": ScaleModeNew, "REPLACE": ScaleModeReplace} {
		got, err := ParseScaleMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseScaleMode("merge")
	assert.Error(t, err)
}

func TestParseServings(t *testing.T) {
	tests := map[string]int{
		"4":          4,
		" 6 people ": 6,
		"":           1,
		"0":          1,
		"-2":         1,
		"about 3":    1,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseServings(in), in)
	}
}

func TestBuildScalingPrompt(t *testing.T) {
	prompt := BuildScalingPrompt(sampleRecipe(), 2, 4, 2)

	assert.Contains(t, prompt, "from 2 servings to 4 servings (factor 2)")
	assert.Contains(t, prompt, "Nutrition per serving: calories 300, protein unknown")
	assert.Contains(t, prompt, "keep calories, protein, carbs, fat and fiber unchanged")
	assert.Contains(t, prompt, `set "nutrition.servings" to "4"`)
	assert.NotContains(t, prompt, "Update nutrition values")
}

package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/page"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const soupCompletion = `Here you go:
{"title":"Tomato Soup","ingredients":["4 tomatoes","1 tsp salt"],"instructions":["Boil","Blend"],
 "mealType":"lunch","cookTime":"","image":"https://ai.example.com/soup.jpg",
 "nutrition":{"calories":"180","servings":"2"},
 "tags":{"familyApproved":true,"mealPrep":true,"grill":true,"bake":true,"stove":true,"slowCooker":true,"microwave":true}}`

var testImporterConfig = ImporterConfig{
	FetchTimeout:    time.Second,
	MaxContentChars: 6000,
	Completion:      provider.Options{Temperature: 0.1, MaxTokens: 2500},
}

func TestImportFromText_EndToEnd(t *testing.T) {
	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Title: Tomato Soup")
	}), testImporterConfig.Completion).Return(
		`{"title":"Tomato Soup","ingredients":"tomatoes\nsalt","instructions":"boil\nblend","tags":{"grill":true}}`, nil)

	imp := NewImporter(transformer, nil, nil, testImporterConfig, nil)
	rec, err := imp.ImportFromText(context.Background(), "Title: Tomato Soup\nIngredients: tomatoes, salt\nInstructions: boil, blend")
	require.NoError(t, err)

	assert.Equal(t, "Tomato Soup", rec.Title)
	assert.False(t, rec.Ingredients.Empty())
	assert.False(t, rec.Instructions.Empty())
	assert.Equal(t, Tags{}, rec.Tags)
	assert.Equal(t, MealTypeDinner, rec.MealType)
	assert.Empty(t, rec.Image)
	transformer.AssertNumberOfCalls(t, "Complete", 1)
}

func TestImportFromText_EmptyText(t *testing.T) {
	transformer := &mockTransformer{}
	imp := NewImporter(transformer, nil, nil, testImporterConfig, nil)

	_, err := imp.ImportFromText(context.Background(), "   ")
	var invalid *common.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	transformer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestImportFromURL_FetchFailureDegrades(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, "https://example.com/soup").
		Return(nil, &common.PageFetchError{URL: "https://example.com/soup", Err: context.DeadlineExceeded})

	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "URL: https://example.com/soup") && !strings.Contains(p, "Page content:")
	}), mock.Anything).Return(soupCompletion, nil)

	imp := NewImporter(transformer, fetcher, nil, testImporterConfig, nil)
	rec, err := imp.ImportFromURL(context.Background(), "https://example.com/soup")
	require.NoError(t, err)

	assert.Equal(t, "Tomato Soup", rec.Title)
	assert.Equal(t, "https://example.com/soup", rec.SourceURL)
	assert.Equal(t, Tags{}, rec.Tags, "tags are always false after import")
	assert.Equal(t, MealTypeLunch, rec.MealType)
	assert.Equal(t, DefaultCookTime, rec.CookTime)
	assert.True(t, rec.CookTimeAIGenerated)
	assert.Equal(t, "https://ai.example.com/soup.jpg", rec.Image)
}

func TestImportFromURL_SlowFetcherTimesOut(t *testing.T) {
	slow := fetcherFunc(func(ctx context.Context, rawURL string) (*page.Page, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(soupCompletion, nil)

	cfg := testImporterConfig
	cfg.FetchTimeout = 20 * time.Millisecond
	imp := NewImporter(transformer, slow, nil, cfg, nil)

	rec, err := imp.ImportFromURL(context.Background(), "https://example.com/slow")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", rec.Title)
}

func TestImportFromURL_ImagePrecedence(t *testing.T) {
	html := `<html><head><meta property="og:image" content="/og.jpg"></head><body><p>4 tomatoes</p></body></html>`

	t.Run("page image wins over transformer", func(t *testing.T) {
		fetcher := &mockFetcher{}
		fetcher.On("Fetch", mock.Anything, "https://example.com/soup").
			Return(&page.Page{URL: "https://example.com/soup", FinalURL: "https://example.com/soup", Status: 200, HTML: html}, nil)

		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Page content:") && strings.Contains(p, "4 tomatoes")
		}), mock.Anything).Return(soupCompletion, nil)

		searcher := &mockSearcher{}

		rec, err := NewImporter(transformer, fetcher, searcher, testImporterConfig, nil).
			ImportFromURL(context.Background(), "https://example.com/soup")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/og.jpg", rec.Image)
		searcher.AssertNotCalled(t, "FindImageFor", mock.Anything, mock.Anything)
	})

	t.Run("search used when nothing else", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":"Tomato Soup","ingredients":"a","instructions":"b"}`, nil)

		searcher := &mockSearcher{}
		searcher.On("FindImageFor", mock.Anything, "Tomato Soup").Return("https://images.example.com/s.jpg", nil)

		rec, err := NewImporter(transformer, nil, searcher, testImporterConfig, nil).
			ImportFromURL(context.Background(), "https://example.com/soup")
		require.NoError(t, err)
		assert.Equal(t, "https://images.example.com/s.jpg", rec.Image)
	})

	t.Run("search failure leaves image empty", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":"Tomato Soup","ingredients":"a","instructions":"b"}`, nil)

		searcher := &mockSearcher{}
		searcher.On("FindImageFor", mock.Anything, "Tomato Soup").Return("", errors.New("rate limited"))

		rec, err := NewImporter(transformer, nil, searcher, testImporterConfig, nil).
			ImportFromText(context.Background(), "Tomato Soup")
		require.NoError(t, err)
		assert.Empty(t, rec.Image)
	})
}

func TestImportFromURL_ContentCapped(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("x", 10000) + "</p></body></html>"
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).
		Return(&page.Page{URL: "https://example.com/long", Status: 200, HTML: long}, nil)

	var prompt string
	transformer := &mockTransformer{}
	transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return(soupCompletion, nil)

	cfg := testImporterConfig
	cfg.MaxContentChars = 100
	_, err := NewImporter(transformer, fetcher, nil, cfg, nil).ImportFromURL(context.Background(), "https://example.com/long")
	require.NoError(t, err)

	assert.Contains(t, prompt, strings.Repeat("x", 100))
	assert.NotContains(t, prompt, strings.Repeat("x", 101))
}

func TestImportFromURL_Errors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewImporter(&mockTransformer{}, nil, nil, testImporterConfig, nil).
			ImportFromURL(context.Background(), "ftp://example.com")
		var invalid *common.InvalidArgumentError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("transformer unavailable", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("", common.NewTransformerUnavailable(errors.New("connection refused")))

		_, err := NewImporter(transformer, nil, nil, testImporterConfig, nil).
			ImportFromURL(context.Background(), "https://example.com/soup")
		var unavailable *common.TransformerUnavailableError
		assert.True(t, errors.As(err, &unavailable))
	})

	t.Run("no json in completion", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("Sorry, I cannot help with that.", nil)

		_, err := NewImporter(transformer, nil, nil, testImporterConfig, nil).
			ImportFromURL(context.Background(), "https://example.com/soup")
		var perr *common.ParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("missing title", func(t *testing.T) {
		transformer := &mockTransformer{}
		transformer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":"","ingredients":"x","instructions":"y"}`, nil)

		_, err := NewImporter(transformer, nil, nil, testImporterConfig, nil).
			ImportFromURL(context.Background(), "https://example.com/soup")
		assert.True(t, common.IsValidationError(err))
	})
}

type fetcherFunc func(ctx context.Context, rawURL string) (*page.Page, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL string) (*page.Page, error) {
	return f(ctx, rawURL)
}

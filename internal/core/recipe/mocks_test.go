package recipe

import (
	"context"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/page"

	"github.com/stretchr/testify/mock"
)

type mockTransformer struct {
	mock.Mock
}

func (m *mockTransformer) Complete(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*page.Page, error) {
	args := m.Called(ctx, rawURL)
	p, _ := args.Get(0).(*page.Page)
	return p, args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) FindImageFor(ctx context.Context, title string) (string, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Error(1)
}

package page

import (
	"context"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher 以 headless Chrome 渲染頁面後取出 DOM，
// 用於內容由 JavaScript 產生的食譜網站
type ChromeFetcher struct {
	userAgent string
}

// NewChromeFetcher 創建 Chrome 抓取器
func NewChromeFetcher(cfg config.FetchConfig) *ChromeFetcher {
	return &ChromeFetcher{userAgent: cfg.UserAgent}
}

// Fetch 實現 Fetcher
func (f *ChromeFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	chromeCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	var (
		html     string
		finalURL string
	)
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &common.PageFetchError{URL: rawURL, Err: err}
	}

	return &Page{
		URL:      rawURL,
		FinalURL: finalURL,
		Status:   200,
		HTML:     html,
	}, nil
}

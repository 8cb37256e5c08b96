package page

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Page 抓取回來的頁面
type Page struct {
	URL      string `json:"url"`
	FinalURL string `json:"finalUrl"`
	Status   int    `json:"status"`
	HTML     string `json:"html"`
}

// BaseURL 解析相對網址時使用的基準
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// Fetcher 取得網頁原始 HTML；非 2xx 回應視為錯誤
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// HTTPFetcher 以一般 HTTP GET 抓取頁面
type HTTPFetcher struct {
	client       *resty.Client
	maxBodyBytes int64
}

// NewHTTPFetcher 創建 HTTP 抓取器
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	return &HTTPFetcher{client: client, maxBodyBytes: cfg.MaxBodyBytes}
}

// Fetch 實現 Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, &common.PageFetchError{URL: rawURL, Err: err}
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &common.PageFetchError{URL: rawURL, Status: resp.StatusCode()}
	}

	body := resp.Body()
	if f.maxBodyBytes > 0 && int64(len(body)) > f.maxBodyBytes {
		common.LogDebug("Page body truncated",
			zap.String("url", rawURL),
			zap.Int("size", len(body)),
		)
		body = body[:f.maxBodyBytes]
	}

	finalURL := rawURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	return &Page{
		URL:      rawURL,
		FinalURL: finalURL,
		Status:   resp.StatusCode(),
		HTML:     string(body),
	}, nil
}

// NewFetcher 依設定選擇抓取器
func NewFetcher(cfg config.FetchConfig) (Fetcher, error) {
	switch cfg.Renderer {
	case "", "http":
		return NewHTTPFetcher(cfg), nil
	case "chrome":
		return NewChromeFetcher(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch renderer %q", cfg.Renderer)
	}
}

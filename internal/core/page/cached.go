package page

import (
	"context"
	"encoding/json"

	"meal-planner/internal/infrastructure/cache"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// CachedFetcher 對成功抓取的頁面做快取，失敗結果不快取
type CachedFetcher struct {
	next    Fetcher
	store   cache.Store
	metrics *monitoring.Metrics
}

// NewCachedFetcher 包裝抓取器；store 為 nil 時直接回傳原抓取器
func NewCachedFetcher(next Fetcher, store cache.Store, metrics *monitoring.Metrics) Fetcher {
	if store == nil {
		return next
	}
	return &CachedFetcher{next: next, store: store, metrics: metrics}
}

// Fetch 實現 Fetcher
func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	key := cache.HashKey("page", rawURL)

	if data, ok, err := f.store.Get(ctx, key); err != nil {
		common.LogWarn("Page cache lookup failed", zap.String("url", rawURL), zap.Error(err))
	} else if ok {
		var p Page
		if err := json.Unmarshal(data, &p); err == nil {
			f.metrics.PageCache(true)
			return &p, nil
		}
	}
	f.metrics.PageCache(false)

	p, err := f.next.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := f.store.Set(ctx, key, data); err != nil {
			common.LogWarn("Page cache store failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return p, nil
}

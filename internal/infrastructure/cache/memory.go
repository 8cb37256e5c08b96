package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"meal-planner/internal/pkg/common"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// MemoryStore 行程內 LRU 快取，每筆帶有存活時間
type MemoryStore struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
	stats cacheStats
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 創建記憶體快取
func NewMemoryStore(maxSize int, ttl time.Duration) (*MemoryStore, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid cache max size %d", maxSize)
	}

	m := &MemoryStore{ttl: ttl, now: time.Now}
	c, err := lru.NewWithEvict(maxSize, func(key interface{}, value interface{}) {
		atomic.AddInt64(&m.stats.evictions, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	m.cache = c

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
	)
	return m, nil
}

// Get 獲取緩存值
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		atomic.AddInt64(&m.stats.misses, 1)
		common.LogDebug("快取未命中", zap.String("鍵", key))
		return nil, false, nil
	}

	entry := v.(cacheEntry)
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		m.cache.Remove(key)
		atomic.AddInt64(&m.stats.misses, 1)
		common.LogDebug("快取已過期", zap.String("鍵", key))
		return nil, false, nil
	}

	atomic.AddInt64(&m.stats.hits, 1)
	common.LogDebug("快取命中", zap.String("鍵", key))
	return entry.value, true, nil
}

// Set 設置緩存值
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.cache.Add(key, cacheEntry{
		value:     value,
		expiresAt: m.now().Add(m.ttl),
	})
	return nil
}

// GetStats 獲取緩存統計信息
func (m *MemoryStore) GetStats() map[string]interface{} {
	hits := atomic.LoadInt64(&m.stats.hits)
	misses := atomic.LoadInt64(&m.stats.misses)
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"size":      m.cache.Len(),
		"hits":      hits,
		"misses":    misses,
		"evictions": atomic.LoadInt64(&m.stats.evictions),
		"hit_ratio": ratio,
	}
}

// Close 關閉緩存管理器
func (m *MemoryStore) Close() error {
	m.cache.Purge()
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", atomic.LoadInt64(&m.stats.hits)),
		zap.Int64("未命中次數", atomic.LoadInt64(&m.stats.misses)),
	)
	return nil
}

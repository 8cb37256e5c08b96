package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"meal-planner/internal/infrastructure/config"
)

// Store 位元組快取
type Store interface {
	// Get 取出快取值；未命中時 ok 為 false 且 err 為 nil
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// NewStore 依設定建立快取；停用時回傳 nil
func NewStore(cfg config.CacheConfig, redisCfg config.RedisConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisStore(redisCfg, cfg.TTL)
	case "memory", "":
		return NewMemoryStore(cfg.MaxSize, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// HashKey 計算字串的 SHA-256 雜湊作為快取鍵
func HashKey(namespace, s string) string {
	hash := sha256.Sum256([]byte(s))
	return namespace + ":" + hex.EncodeToString(hash[:])
}

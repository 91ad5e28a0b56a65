// Package cache 提供食譜 API 回應的快取儲存，支援記憶體與 Redis 兩種後端
package cache

import (
	"context"
	"errors"
	"fmt"

	"recipe-manager/internal/infrastructure/config"
)

// ErrMiss 快取未命中
var ErrMiss = errors.New("cache miss")

// Store 快取儲存介面
type Store interface {
	// Get 取得快取值；未命中時回傳 ErrMiss
	Get(ctx context.Context, key string) (string, error)
	// Set 寫入快取值，使用設定的 TTL
	Set(ctx context.Context, key, value string) error
	// Purge 刪除所有以 prefix 開頭的鍵，回傳刪除數量
	Purge(ctx context.Context, prefix string) (int, error)
	// Ping 檢查後端是否可用
	Ping(ctx context.Context) error
	// Close 釋放資源
	Close() error
}

// New 依設定建立快取；未啟用時回傳 nil
func New(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		return NewManager(cfg.Cache), nil
	case config.CacheBackendRedis:
		store, err := NewRedisStore(context.Background(), cfg.Redis, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

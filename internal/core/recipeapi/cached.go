package recipeapi

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"recipe-manager/internal/core/cache"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

// Cached 讀取走快取的 Repository；任何寫入成功後清除整個命名空間。
//
// 鍵帶有世代編號，寫入成功時遞增。寫入前就開始載入的讀取只會寫回舊世代的鍵，
// 不會被之後的讀取命中。
type Cached struct {
	next      Repository
	store     cache.Store
	namespace string
	epoch     atomic.Uint64
}

var _ Repository = (*Cached)(nil)

// NewCached 以快取包裝 Repository；store 為 nil 時直接回傳 next
func NewCached(next Repository, store cache.Store, namespace string) Repository {
	if store == nil {
		return next
	}
	return &Cached{
		next:      next,
		store:     store,
		namespace: namespace,
	}
}

func (c *Cached) prefix(epoch uint64) string {
	return c.namespace + ":v" + strconv.FormatUint(epoch, 10) + ":"
}

func (c *Cached) listKey(epoch uint64) string {
	return c.prefix(epoch) + "list"
}

func (c *Cached) searchKey(epoch uint64, query string) string {
	return c.prefix(epoch) + "search:" + query
}

// List 取得所有食譜
func (c *Cached) List(ctx context.Context) ([]recipe.Recipe, error) {
	epoch := c.epoch.Load()
	return c.read(ctx, c.listKey(epoch), func() ([]recipe.Recipe, error) {
		return c.next.List(ctx)
	})
}

// Search 查詢食譜
func (c *Cached) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	epoch := c.epoch.Load()
	return c.read(ctx, c.searchKey(epoch, query), func() ([]recipe.Recipe, error) {
		return c.next.Search(ctx, query)
	})
}

// Create 新增食譜
func (c *Cached) Create(ctx context.Context, fields recipe.Fields) error {
	if err := c.next.Create(ctx, fields); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update 更新食譜
func (c *Cached) Update(ctx context.Context, id string, fields recipe.Fields) error {
	if err := c.next.Update(ctx, id, fields); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Delete 刪除食譜
func (c *Cached) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// read 先查快取，快取錯誤一律視為未命中
func (c *Cached) read(ctx context.Context, key string, load func() ([]recipe.Recipe, error)) ([]recipe.Recipe, error) {
	raw, err := c.store.Get(ctx, key)
	if err == nil {
		recipes := make([]recipe.Recipe, 0)
		if err := common.ParseJSON(raw, &recipes); err == nil {
			return recipes, nil
		}
		common.LogWarn("Discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		common.LogWarn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	recipes, err := load()
	if err != nil {
		return nil, err
	}

	if encoded, err := common.ToJSON(recipes); err == nil {
		if err := c.store.Set(ctx, key, encoded); err != nil {
			common.LogWarn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return recipes, nil
}

func (c *Cached) invalidate(ctx context.Context) {
	c.epoch.Add(1)
	n, err := c.store.Purge(ctx, c.namespace+":")
	if err != nil {
		common.LogWarn("Cache purge failed", zap.String("namespace", c.namespace), zap.Error(err))
		return
	}
	common.LogDebug("Cache purged after write", zap.String("namespace", c.namespace), zap.Int("keys", n))
}

package finder

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/filedock/pkg/cache"
	"github.com/yeisme/filedock/pkg/internal/storage/kv"
)

const imageInfoKeyPrefix = "img"

// CacheManager 以 CombinePath 组合的路径为键缓存图片信息.
type CacheManager struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewCacheManager c 为 nil 时不缓存.
func NewCacheManager(c *cache.Cache, ttl time.Duration) *CacheManager {
	return &CacheManager{cache: c, ttl: ttl}
}

func imageInfoKey(p string) string {
	return cache.HashKey(imageInfoKeyPrefix, p)
}

// Set 写入图片信息.
func (m *CacheManager) Set(ctx context.Context, p string, info ImageInfo) error {
	if m == nil || m.cache == nil {
		return nil
	}

	return cache.Set(ctx, m.cache, imageInfoKey(p), info, m.ttl)
}

// Get 读取图片信息，未命中时 ok 为 false.
func (m *CacheManager) Get(ctx context.Context, p string) (ImageInfo, bool, error) {
	if m == nil || m.cache == nil {
		return ImageInfo{}, false, nil
	}

	info, err := cache.Get[ImageInfo](ctx, m.cache, imageInfoKey(p))
	if errors.Is(err, kv.ErrNotFound) {
		return ImageInfo{}, false, nil
	}

	if err != nil {
		return ImageInfo{}, false, err
	}

	return info, true, nil
}

// GetOrLoad 读取图片信息，未命中时调用 load 并回写.
func (m *CacheManager) GetOrLoad(ctx context.Context, p string, load func() (ImageInfo, error)) (ImageInfo, error) {
	if m == nil || m.cache == nil {
		return load()
	}

	return cache.GetOrSet(ctx, m.cache, imageInfoKey(p), load, m.ttl)
}

// Delete 删除图片信息.
func (m *CacheManager) Delete(ctx context.Context, p string) error {
	if m == nil || m.cache == nil {
		return nil
	}

	err := m.cache.Delete(ctx, imageInfoKey(p))
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}

	return err
}

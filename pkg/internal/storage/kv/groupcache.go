package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/filedock/pkg/configs"
)

// GroupcacheKV 本地写入、经 groupcache 读取的 KV 实现.
// groupcache 自身不可失效，Delete/过期后通过本地数据判定不存在.
type GroupcacheKV struct {
	group *groupcache.Group
	data  map[string][]byte
	mu    sync.RWMutex
}

var (
	groupsMu sync.Mutex
	groups   = map[string]*GroupcacheKV{}
)

type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	g.kv.mu.RLock()
	value, ok := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !ok {
		return notFound(key)
	}

	return dest.SetBytes(value)
}

// NewGroupcacheKV 创建 Groupcache KV 实例，同名 group 在进程内复用.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.GroupcacheKVConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	// groupcache.NewGroup 对重复名称会 panic
	if existing, ok := groups[cfg.Name]; ok {
		return existing, nil
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}
	kv.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, &groupcacheGetter{kv: kv})

	if len(cfg.Peers) > 0 {
		pool := groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
		pool.Set(cfg.Peers...)
	}

	groups[cfg.Name] = kv

	return kv, nil
}

func (g *GroupcacheKV) live(key string) bool {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return false
	}

	_, expired, err := decodeWithTTL(raw, time.Now())

	return err == nil && !expired
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	if !g.live(key) {
		return nil, notFound(key)
	}

	var raw []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		return nil, notFound(key)
	}

	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

// Set 设置键的值.
// groupcache 的 hot cache 不会被覆盖，值更新后的读取可能仍命中旧值直至淘汰.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(append([]byte(nil), value...), ttl, time.Now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = encoded
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	return g.live(key), nil
}

// Keys 获取匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	candidates := make([]string, 0, len(g.data))

	for key := range g.data {
		if matchPattern(pattern, key) {
			candidates = append(candidates, key)
		}
	}
	g.mu.RUnlock()

	keys := candidates[:0]

	for _, key := range candidates {
		if g.live(key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeGroupcache, NewGroupcacheKV)
}

package cache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/filedock/pkg/cache"
	"github.com/yeisme/filedock/pkg/internal/storage/kv"
)

type imageInfo struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Size   int64 `json:"size"`
}

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.data[key]; ok {
		return v, nil
	}

	return nil, kv.ErrNotFound
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.ttls[key] = ttl

	return nil
}

func (m *mockKVStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

func (m *mockKVStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.data[key]

	return ok, nil
}

func (m *mockKVStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	keys := make([]string, 0, len(m.data))

	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (m *mockKVStore) Close() error { return nil }

func TestSetGet(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	if _, err := cache.Get[imageInfo](ctx, c, "img.missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	want := imageInfo{Width: 800, Height: 600, Size: 1234}
	if err := cache.Set(ctx, c, "img.1", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if store.ttls["img.1"] != time.Hour {
		t.Errorf("ttl not forwarded: %v", store.ttls["img.1"])
	}

	got, err := cache.Get[imageInfo](ctx, c, "img.1")
	if err != nil || got != want {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	if err := c.Delete(ctx, "img.1"); err != nil {
		t.Fatal(err)
	}

	if ok, _ := c.Exists(ctx, "img.1"); ok {
		t.Fatal("key exists after Delete")
	}
}

func TestGetUnmarshalError(t *testing.T) {
	store := newMockKVStore()
	store.data["img.bad"] = []byte("not json")

	if _, err := cache.Get[imageInfo](context.Background(), cache.NewCache(store), "img.bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestGetOrSet(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	var calls int32

	getter := func() (imageInfo, error) {
		atomic.AddInt32(&calls, 1)
		return imageInfo{Width: 1}, nil
	}

	for range 3 {
		v, err := cache.GetOrSet(ctx, c, "img.g", getter, 0)
		if err != nil || v.Width != 1 {
			t.Fatalf("GetOrSet = %+v, %v", v, err)
		}
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}

	_, err := cache.GetOrSet(ctx, c, "img.err", func() (imageInfo, error) {
		return imageInfo{}, errors.New("boom")
	}, 0)
	if err == nil {
		t.Fatal("expected getter error")
	}
}

func TestHashKey(t *testing.T) {
	a := cache.HashKey("img", "Images/a/b.jpg")
	b := cache.HashKey("img", "Images/a/b.jpg")
	c := cache.HashKey("img", "Images/a/c.jpg")

	if a != b || a == c {
		t.Fatalf("HashKey not deterministic/distinct: %s %s %s", a, b, c)
	}

	if !strings.HasPrefix(a, "img.") || strings.ContainsAny(a, "/ ") {
		t.Fatalf("HashKey produced invalid key %q", a)
	}
}

func TestClear(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	_ = cache.Set(ctx, c, "img.1", 1, 0)
	_ = cache.Set(ctx, c, "img.2", 2, 0)
	_ = cache.Set(ctx, c, "other", 3, 0)

	if err := c.Clear(ctx, "img."); err != nil {
		t.Fatal(err)
	}

	if len(store.data) != 1 {
		t.Fatalf("remaining keys = %v", store.data)
	}
}

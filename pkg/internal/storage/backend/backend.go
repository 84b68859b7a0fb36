// Package backend 定义连接器使用的文件存储后端，并提供 local、memory（afero）与 s3（minio）适配器.
//
// 后端内的路径统一使用 "/" 分隔的相对路径，例如 "images/photos/a.png".
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/yeisme/filedock/pkg/configs"
	s3c "github.com/yeisme/filedock/pkg/internal/storage/s3"
)

// ErrNotExist 文件不存在.
var ErrNotExist = errors.New("backend: file does not exist")

// FileInfo 目录列表项.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Backend 文件存储后端.
type Backend interface {
	Name() string
	// Exists 报告 p 处是否存在文件.
	Exists(ctx context.Context, p string) (bool, error)
	// Put 写入 r 的全部内容并返回写入字节数，已存在的文件被覆盖.
	Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) (int64, error)
	// Open 读取文件，不存在时返回包装了 ErrNotExist 的错误.
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	// List 列出目录 dir 的直接子项，目录不存在时返回空列表.
	List(ctx context.Context, dir string) ([]FileInfo, error)
	// DeletePrefix 删除 prefix 目录下的全部内容，不存在时不报错.
	DeletePrefix(ctx context.Context, prefix string) error
	// URL 返回文件的公开访问地址，没有配置时返回空串.
	URL(p string) string
}

// Deps 适配器可用的共享资源.
type Deps struct {
	S3 *s3c.Client
}

// Factory 按配置创建后端.
type Factory func(ctx context.Context, cfg configs.BackendConfig, deps Deps) (Backend, error)

var factories = map[configs.BackendAdapter]Factory{}

// RegisterFactory 注册适配器工厂.
func RegisterFactory(adapter configs.BackendAdapter, f Factory) {
	factories[adapter] = f
}

// RegisteredAdapters 返回已注册的适配器类型.
func RegisteredAdapters() []configs.BackendAdapter {
	adapters := make([]configs.BackendAdapter, 0, len(factories))
	for a := range factories {
		adapters = append(adapters, a)
	}

	sort.Slice(adapters, func(i, j int) bool { return adapters[i] < adapters[j] })

	return adapters
}

// Registry 按名称持有已创建的后端.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry 按配置依次创建全部后端.
func NewRegistry(ctx context.Context, cfgs []configs.BackendConfig, deps Deps) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(cfgs))}

	for _, c := range cfgs {
		f, ok := factories[c.Adapter]
		if !ok {
			return nil, fmt.Errorf("backend %s: unsupported adapter %q", c.Name, c.Adapter)
		}

		b, err := f(ctx, c, deps)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", c.Name, err)
		}

		r.backends[c.Name] = b
	}

	return r, nil
}

// NewRegistryOf 由现成的后端组装 Registry.
func NewRegistryOf(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}

	return r
}

// Get 按名称获取后端.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Names 返回全部后端名称（已排序）.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Clean 规范化后端内路径，去掉首尾 "/"，拒绝越出根目录的路径.
func Clean(p string) (string, error) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid path %q", p)
		}
	}

	return strings.TrimPrefix(path.Clean("/"+p), "/"), nil
}

func joinURL(base, p string) string {
	if base == "" {
		return ""
	}

	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(p, "/")
}

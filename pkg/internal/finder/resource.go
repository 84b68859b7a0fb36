package finder

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
)

// ResourceType 命名的存储类别，拥有独立的大小和扩展名策略.
type ResourceType struct {
	Name              string
	Backend           backend.Backend
	Directory         string
	MaxSize           int64 // 0 表示不限制
	AllowedExtensions []string
	DeniedExtensions  []string

	allowed map[string]struct{}
	denied  map[string]struct{}
}

// NewResourceType 创建资源类型，扩展名统一转为小写.
func NewResourceType(name string, b backend.Backend, directory string, maxSize int64, allowed, denied []string) *ResourceType {
	rt := &ResourceType{
		Name:      name,
		Backend:   b,
		Directory: strings.Trim(directory, "/"),
		MaxSize:   maxSize,
		allowed:   make(map[string]struct{}, len(allowed)),
		denied:    make(map[string]struct{}, len(denied)),
	}

	for _, e := range allowed {
		e = strings.ToLower(e)
		rt.AllowedExtensions = append(rt.AllowedExtensions, e)
		rt.allowed[e] = struct{}{}
	}

	for _, e := range denied {
		e = strings.ToLower(e)
		rt.DeniedExtensions = append(rt.DeniedExtensions, e)
		rt.denied[e] = struct{}{}
	}

	return rt
}

// IsAllowedExtension 报告扩展名是否允许，允许列表为空表示全部允许.
func (rt *ResourceType) IsAllowedExtension(ext string) bool {
	ext = strings.ToLower(ext)

	if _, ok := rt.denied[ext]; ok {
		return false
	}

	if len(rt.allowed) == 0 {
		return true
	}

	_, ok := rt.allowed[ext]

	return ok
}

// ResourceTypes 全部资源类型，保持配置顺序.
type ResourceTypes struct {
	list   []*ResourceType
	byName map[string]*ResourceType
}

// NewResourceTypes 由配置和后端注册表构建资源类型.
func NewResourceTypes(cfgs []configs.ResourceTypeConfig, backends *backend.Registry) (*ResourceTypes, error) {
	rts := &ResourceTypes{byName: make(map[string]*ResourceType, len(cfgs))}

	for i := range cfgs {
		c := &cfgs[i]

		b, ok := backends.Get(c.Backend)
		if !ok {
			return nil, fmt.Errorf("resource type %s: unknown backend %q", c.Name, c.Backend)
		}

		maxSize, err := c.MaxSizeBytes()
		if err != nil {
			return nil, err
		}

		rts.Add(NewResourceType(c.Name, b, c.Directory, maxSize, c.AllowedExtensions, c.DeniedExtensions))
	}

	return rts, nil
}

// Add 追加资源类型，同名时覆盖.
func (r *ResourceTypes) Add(rt *ResourceType) {
	if r.byName == nil {
		r.byName = make(map[string]*ResourceType)
	}

	if _, ok := r.byName[rt.Name]; !ok {
		r.list = append(r.list, rt)
	} else {
		for i, old := range r.list {
			if old.Name == rt.Name {
				r.list[i] = rt
			}
		}
	}

	r.byName[rt.Name] = rt
}

// Get 按名称查找资源类型.
func (r *ResourceTypes) Get(name string) (*ResourceType, bool) {
	rt, ok := r.byName[name]
	return rt, ok
}

// All 返回全部资源类型.
func (r *ResourceTypes) All() []*ResourceType {
	return r.list
}

// WorkingFolder 请求的当前目录：资源类型 + 客户端路径.
type WorkingFolder struct {
	ResourceType *ResourceType
	ClientPath   string // "/" 开头和结尾
	ACL          Permission
}

// NewWorkingFolder 创建工作目录，clientPath 会被规范化.
func NewWorkingFolder(rt *ResourceType, clientPath string, acl Permission) (*WorkingFolder, error) {
	p, err := NormalizeFolder(clientPath)
	if err != nil {
		return nil, err
	}

	return &WorkingFolder{ResourceType: rt, ClientPath: p, ACL: acl}, nil
}

func (w *WorkingFolder) backendPath(name string) string {
	return path.Join(w.ResourceType.Directory, w.ClientPath, name)
}

// Exists 报告当前目录下是否已有同名文件.
func (w *WorkingFolder) Exists(ctx context.Context, name string) (bool, error) {
	return w.ResourceType.Backend.Exists(ctx, w.backendPath(name))
}

// PutStream 把 r 写入当前目录下的 name，返回写入字节数.
func (w *WorkingFolder) PutStream(ctx context.Context, name string, r io.Reader, size int64, mimeType string) (int64, error) {
	return w.ResourceType.Backend.Put(ctx, w.backendPath(name), r, size, mimeType)
}

// List 列出当前目录的直接子项.
func (w *WorkingFolder) List(ctx context.Context) ([]backend.FileInfo, error) {
	return w.ResourceType.Backend.List(ctx, strings.TrimPrefix(w.backendPath(""), "/"))
}

// Open 读取当前目录下的文件.
func (w *WorkingFolder) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return w.ResourceType.Backend.Open(ctx, w.backendPath(name))
}

// URL 返回当前目录的访问地址，以 "/" 结尾；后端没有公开地址时为空串.
func (w *WorkingFolder) URL() string {
	u := w.ResourceType.Backend.URL(w.backendPath(""))
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}

	return u + "/"
}

// FileURL 返回当前目录下文件的访问地址.
func (w *WorkingFolder) FileURL(name string) string {
	return w.ResourceType.Backend.URL(w.backendPath(name))
}

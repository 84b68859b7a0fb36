package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/yeisme/filedock/pkg/configs"
)

func init() {
	RegisterFactory(configs.AdapterLocal, newLocal)
	RegisterFactory(configs.AdapterMemory, newMemory)
}

// AferoBackend 基于 afero.Fs 的后端，local 适配器使用 BasePathFs，memory 适配器使用 MemMapFs.
type AferoBackend struct {
	name    string
	fs      afero.Fs
	baseURL string
}

// NewAferoBackend 使用给定文件系统创建后端.
func NewAferoBackend(name string, fsys afero.Fs, baseURL string) *AferoBackend {
	return &AferoBackend{name: name, fs: fsys, baseURL: baseURL}
}

func newLocal(_ context.Context, cfg configs.BackendConfig, _ Deps) (Backend, error) {
	root := cfg.Root
	if root == "" {
		return nil, fmt.Errorf("local adapter requires root")
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", root, err)
	}

	return NewAferoBackend(cfg.Name, afero.NewBasePathFs(osFs, root), cfg.BaseURL), nil
}

func newMemory(_ context.Context, cfg configs.BackendConfig, _ Deps) (Backend, error) {
	return NewAferoBackend(cfg.Name, afero.NewMemMapFs(), cfg.BaseURL), nil
}

// Name 返回后端名称.
func (b *AferoBackend) Name() string { return b.name }

// Fs 返回底层文件系统.
func (b *AferoBackend) Fs() afero.Fs { return b.fs }

// Exists 报告文件是否存在.
func (b *AferoBackend) Exists(_ context.Context, p string) (bool, error) {
	p, err := Clean(p)
	if err != nil {
		return false, err
	}

	info, err := b.fs.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

// Put 写入文件.
func (b *AferoBackend) Put(_ context.Context, p string, r io.Reader, _ int64, _ string) (int64, error) {
	p, err := Clean(p)
	if err != nil {
		return 0, err
	}

	if dir := path.Dir(p); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	f, err := b.fs.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", p, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return n, fmt.Errorf("write %s: %w", p, err)
	}

	return n, nil
}

// Open 读取文件.
func (b *AferoBackend) Open(_ context.Context, p string) (io.ReadCloser, error) {
	p, err := Clean(p)
	if err != nil {
		return nil, err
	}

	f, err := b.fs.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
	}

	return f, err
}

// List 列出目录.
func (b *AferoBackend) List(_ context.Context, dir string) ([]FileInfo, error) {
	dir, err := Clean(dir)
	if err != nil {
		return nil, err
	}

	if dir == "" {
		dir = "."
	}

	entries, err := afero.ReadDir(b.fs, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, FileInfo{Name: e.Name(), Size: e.Size(), ModTime: e.ModTime(), IsDir: e.IsDir()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// DeletePrefix 删除目录.
func (b *AferoBackend) DeletePrefix(_ context.Context, prefix string) error {
	prefix, err := Clean(prefix)
	if err != nil {
		return err
	}

	if prefix == "" {
		return fmt.Errorf("refusing to delete backend root")
	}

	return b.fs.RemoveAll(prefix)
}

// URL 返回公开地址.
func (b *AferoBackend) URL(p string) string {
	return joinURL(b.baseURL, p)
}

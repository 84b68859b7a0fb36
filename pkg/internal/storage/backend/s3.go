package backend

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/filedock/pkg/configs"
	s3c "github.com/yeisme/filedock/pkg/internal/storage/s3"
)

func init() {
	RegisterFactory(configs.AdapterS3, newS3)
}

// S3Backend 对象存储后端，root 作为对象键前缀.
type S3Backend struct {
	name    string
	client  *s3c.Client
	bucket  string
	root    string
	baseURL string
}

func newS3(ctx context.Context, cfg configs.BackendConfig, deps Deps) (Backend, error) {
	if deps.S3 == nil {
		return nil, fmt.Errorf("s3 adapter requires s3.enabled")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 adapter requires bucket")
	}

	if err := deps.S3.EnsureBucket(ctx, cfg.Bucket); err != nil {
		return nil, err
	}

	root, err := Clean(cfg.Root)
	if err != nil {
		return nil, err
	}

	return &S3Backend{name: cfg.Name, client: deps.S3, bucket: cfg.Bucket, root: root, baseURL: cfg.BaseURL}, nil
}

func (b *S3Backend) key(p string) (string, error) {
	p, err := Clean(p)
	if err != nil {
		return "", err
	}

	return path.Join(b.root, p), nil
}

// Name 返回后端名称.
func (b *S3Backend) Name() string { return b.name }

// Exists 报告对象是否存在.
func (b *S3Backend) Exists(ctx context.Context, p string) (bool, error) {
	key, err := b.key(p)
	if err != nil {
		return false, err
	}

	_, err = b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", key, err)
}

// Put 上传对象；size<0 时由 minio 分片上传.
func (b *S3Backend) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) (int64, error) {
	key, err := b.key(p)
	if err != nil {
		return 0, err
	}

	info, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}

	return info.Size, nil
}

// Open 读取对象.
func (b *S3Backend) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := b.key(p)
	if err != nil {
		return nil, err
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	// GetObject 延迟到首次读取才请求，Stat 用于提前发现不存在的对象
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()

		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
		}

		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	return obj, nil
}

// List 列出前缀下的直接子项.
func (b *S3Backend) List(ctx context.Context, dir string) ([]FileInfo, error) {
	prefix, err := b.key(dir)
	if err != nil {
		return nil, err
	}

	if prefix != "" {
		prefix += "/"
	}

	var out []FileInfo

	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, prefix)
		if strings.HasSuffix(name, "/") {
			out = append(out, FileInfo{Name: strings.TrimSuffix(name, "/"), IsDir: true})
			continue
		}

		out = append(out, FileInfo{Name: name, Size: obj.Size, ModTime: obj.LastModified})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// DeletePrefix 删除前缀下的全部对象.
func (b *S3Backend) DeletePrefix(ctx context.Context, prefix string) error {
	key, err := b.key(prefix)
	if err != nil {
		return err
	}

	if key == "" {
		return fmt.Errorf("refusing to delete backend root")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: key + "/", Recursive: true})

	return firstRemoveError(b.client.RemoveObjects(ctx, b.bucket, objects, minio.RemoveObjectsOptions{}))
}

// firstRemoveError 读完 RemoveObjects 的错误通道并返回第一个错误.
// 中途返回会让 minio 的发送协程永久阻塞.
func firstRemoveError(errs <-chan minio.RemoveObjectError) error {
	var first error

	for rerr := range errs {
		if rerr.Err != nil && first == nil {
			first = fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}

	return first
}

// URL 返回公开地址，未配置 base_url 时使用 endpoint/bucket/key.
func (b *S3Backend) URL(p string) string {
	key, err := b.key(p)
	if err != nil {
		return ""
	}

	if b.baseURL != "" {
		return joinURL(b.baseURL, p)
	}

	return joinURL(b.client.EndpointURL().String()+"/"+b.bucket, key)
}

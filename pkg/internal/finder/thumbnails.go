package finder

import (
	"context"
	"fmt"

	"github.com/yeisme/filedock/pkg/internal/storage/backend"
)

// ThumbnailRepository 缩略图存放在独立后端的 <资源类型>/<目录>/<文件名>/ 下.
type ThumbnailRepository struct {
	backend backend.Backend
}

// NewThumbnailRepository b 为 nil 时所有操作都是空操作.
func NewThumbnailRepository(b backend.Backend) *ThumbnailRepository {
	return &ThumbnailRepository{backend: b}
}

// ThumbnailPath 返回文件缩略图目录.
func ThumbnailPath(resourceType, folder, fileName string) string {
	return CombinePath(resourceType, folder, fileName)
}

// DeleteThumbnails 删除文件的全部缩略图，没有缩略图时不报错.
func (r *ThumbnailRepository) DeleteThumbnails(ctx context.Context, resourceType, folder, fileName string) error {
	if r == nil || r.backend == nil {
		return nil
	}

	if err := r.backend.DeletePrefix(ctx, ThumbnailPath(resourceType, folder, fileName)); err != nil {
		return fmt.Errorf("delete thumbnails of %s: %w", fileName, err)
	}

	return nil
}

package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// BackendAdapter 存储后端适配器类型.
type BackendAdapter string

const (
	AdapterLocal  BackendAdapter = "local"
	AdapterMemory BackendAdapter = "memory"
	AdapterS3     BackendAdapter = "s3"
)

const (
	DefaultImageMaxWidth  = 1600
	DefaultImageMaxHeight = 1200
	DefaultImageQuality   = 80
	DefaultImageMaxPixels = 40_000_000
	DefaultFinderCacheTTL = 24 * time.Hour
	DefaultThumbsBackend  = "thumbs"
)

type (
	// FinderConfig 文件管理连接器配置.
	FinderConfig struct {
		OverwriteOnUpload     bool                 `mapstructure:"overwrite_on_upload"`
		SecureImageUploads    bool                 `mapstructure:"secure_image_uploads"`
		CheckSizeAfterScaling bool                 `mapstructure:"check_size_after_scaling"`
		CheckDoubleExtension  bool                 `mapstructure:"check_double_extension"`
		ForceASCII            bool                 `mapstructure:"force_ascii"`
		DefaultLanguage       string               `mapstructure:"default_language"`
		HTMLExtensions        []string             `mapstructure:"html_extensions"  rule:"dive,file_ext"`
		HideFiles             []string             `mapstructure:"hide_files"`
		Images                FinderImagesConfig   `mapstructure:"images"`
		Cache                 FinderCacheConfig    `mapstructure:"cache"`
		Thumbnails            FinderThumbsConfig   `mapstructure:"thumbnails"`
		Backends              []BackendConfig      `mapstructure:"backends"         rule:"dive"`
		ResourceTypes         []ResourceTypeConfig `mapstructure:"resource_types"   rule:"dive"`
		ACL                   []ACLRuleConfig      `mapstructure:"acl"              rule:"dive"`
	}

	// FinderImagesConfig 上传图片缩放配置，0 表示不限制.
	// MaxPixels 限制解码前的宽高乘积，超出的图片直接拒绝.
	FinderImagesConfig struct {
		MaxWidth  int `mapstructure:"max_width"  rule:"min=0"`
		MaxHeight int `mapstructure:"max_height" rule:"min=0"`
		MaxPixels int `mapstructure:"max_pixels" rule:"min=0"`
		Quality   int `mapstructure:"quality"    rule:"min=1,max=100"`
	}

	// FinderCacheConfig 图片信息缓存配置.
	FinderCacheConfig struct {
		TTL time.Duration `mapstructure:"ttl"`
	}

	// FinderThumbsConfig 缩略图存放的后端.
	FinderThumbsConfig struct {
		Backend string `mapstructure:"backend"`
	}

	// BackendConfig 命名存储后端.
	BackendConfig struct {
		Name    string         `mapstructure:"name"     rule:"required"`
		Adapter BackendAdapter `mapstructure:"adapter"  rule:"oneof=local memory s3"`
		Root    string         `mapstructure:"root"`
		Bucket  string         `mapstructure:"bucket"`
		BaseURL string         `mapstructure:"base_url"`
	}

	// ResourceTypeConfig 资源类型，例如 Files、Images.
	ResourceTypeConfig struct {
		Name              string   `mapstructure:"name"               rule:"required"`
		Backend           string   `mapstructure:"backend"            rule:"required"`
		Directory         string   `mapstructure:"directory"`
		MaxSize           string   `mapstructure:"max_size"           rule:"byte_size"`
		AllowedExtensions []string `mapstructure:"allowed_extensions" rule:"dive,file_ext"`
		DeniedExtensions  []string `mapstructure:"denied_extensions"  rule:"dive,file_ext"`
	}

	// ACLRuleConfig 单条访问控制规则，"*" 为通配.
	ACLRuleConfig struct {
		Role         string   `mapstructure:"role"          rule:"required"`
		ResourceType string   `mapstructure:"resource_type" rule:"required"`
		Folder       string   `mapstructure:"folder"        rule:"folder_path"`
		Allow        []string `mapstructure:"allow"`
		Deny         []string `mapstructure:"deny"`
	}
)

// MaxSizeBytes 解析 max_size，空串或 0 返回 0（不限制）.
func (r *ResourceTypeConfig) MaxSizeBytes() (int64, error) {
	s := strings.TrimSpace(r.MaxSize)
	if s == "" || s == "0" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("resource type %s: invalid max_size %q: %w", r.Name, r.MaxSize, err)
	}

	return int64(n), nil
}

// Backend 按名称查找后端配置.
func (c *FinderConfig) Backend(name string) (BackendConfig, bool) {
	for _, b := range c.Backends {
		if b.Name == name {
			return b, true
		}
	}

	return BackendConfig{}, false
}

// validate 校验跨字段引用：资源类型和缩略图引用的后端必须存在，名称不可重复.
func (c *FinderConfig) validate() error {
	seen := make(map[string]struct{}, len(c.ResourceTypes))

	for _, rt := range c.ResourceTypes {
		if _, dup := seen[rt.Name]; dup {
			return fmt.Errorf("invalid config: duplicate resource type %q", rt.Name)
		}

		seen[rt.Name] = struct{}{}

		if _, ok := c.Backend(rt.Backend); !ok {
			return fmt.Errorf("invalid config: resource type %q references unknown backend %q", rt.Name, rt.Backend)
		}
	}

	if c.Thumbnails.Backend != "" {
		if _, ok := c.Backend(c.Thumbnails.Backend); !ok {
			return fmt.Errorf("invalid config: unknown thumbnails backend %q", c.Thumbnails.Backend)
		}
	}

	return nil
}

func (c *FinderConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("finder.overwrite_on_upload", false)
	v.SetDefault("finder.secure_image_uploads", true)
	v.SetDefault("finder.check_size_after_scaling", true)
	v.SetDefault("finder.check_double_extension", true)
	v.SetDefault("finder.force_ascii", false)
	v.SetDefault("finder.default_language", "en")
	v.SetDefault("finder.html_extensions", []string{"html", "htm", "xml", "js"})
	v.SetDefault("finder.hide_files", []string{".*"})

	v.SetDefault("finder.images.max_width", DefaultImageMaxWidth)
	v.SetDefault("finder.images.max_height", DefaultImageMaxHeight)
	v.SetDefault("finder.images.max_pixels", DefaultImageMaxPixels)
	v.SetDefault("finder.images.quality", DefaultImageQuality)

	v.SetDefault("finder.cache.ttl", DefaultFinderCacheTTL)
	v.SetDefault("finder.thumbnails.backend", DefaultThumbsBackend)

	v.SetDefault("finder.backends", []map[string]any{
		{"name": "default", "adapter": string(AdapterLocal), "root": "userfiles", "base_url": "/userfiles/"},
		{"name": DefaultThumbsBackend, "adapter": string(AdapterLocal), "root": "userfiles/.thumbs"},
	})

	v.SetDefault("finder.resource_types", []map[string]any{
		{
			"name": "Files", "backend": "default", "directory": "files", "max_size": "0",
			"allowed_extensions": []string{
				"7z", "aiff", "asf", "avi", "bmp", "csv", "doc", "docx", "fla", "flv", "gif", "gz", "gzip",
				"jpeg", "jpg", "mid", "mov", "mp3", "mp4", "mpc", "mpeg", "mpg", "ods", "odt", "pdf", "png",
				"ppt", "pptx", "qt", "ram", "rar", "rm", "rmi", "rmvb", "rtf", "sdc", "swf", "sxc", "sxw",
				"tar", "tgz", "tif", "tiff", "txt", "vsd", "wav", "webp", "wma", "wmv", "xls", "xlsx", "zip",
			},
		},
		{
			"name": "Images", "backend": "default", "directory": "images", "max_size": "0",
			"allowed_extensions": []string{"bmp", "gif", "jpeg", "jpg", "png", "webp"},
		},
	})

	v.SetDefault("finder.acl", []map[string]any{
		{
			"role": "*", "resource_type": "*", "folder": "/",
			"allow": []string{"FOLDER_VIEW", "FOLDER_CREATE", "FOLDER_RENAME", "FOLDER_DELETE",
				"FILE_VIEW", "FILE_CREATE", "FILE_RENAME", "FILE_DELETE", "IMAGE_RESIZE", "IMAGE_RESIZE_CUSTOM"},
		},
	})
}

package finder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yeisme/filedock/pkg/configs"
)

const (
	maxFilenameLength = 255
	htmlSniffLength   = 1024
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[:*?|/\\"<>\x00-\x1f\x7f]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)

	htmlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<!doctype\W*x?html`),
		regexp.MustCompile(`<(?:body|head|html|img|pre|script|table|title)[\s>]`),
		regexp.MustCompile(`type\s*=\s*['"]?\s*(?:\w*/)?(?:ecma|java)`),
		regexp.MustCompile(`(?:href|src|data)\s*=\s*['"]?\s*(?:ecma|java)script:`),
		regexp.MustCompile(`url\s*\(\s*['"]?\s*(?:ecma|java)script:`),
	}

	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Upload HTTP 层解析出的上传部件.
type Upload struct {
	Name     string
	MimeType string
	Size     int64 // 小于 0 表示未知
	Open     func() (io.ReadCloser, error)
}

// UploadedFile 正在处理的上传文件，内容读入内存后可以被替换（例如图片缩放）.
type UploadedFile struct {
	originalName string
	name         string
	mimeType     string
	contents     []byte
	errMessage   string

	folder *WorkingFolder
	cfg    *configs.FinderConfig
}

// NewUploadedFile 读取上传内容并立即关闭读取流.
// 读取失败或大小与声明不符时文件被标记为无效，ErrorMessage 给出原因.
func NewUploadedFile(up *Upload, folder *WorkingFolder, cfg *configs.FinderConfig) *UploadedFile {
	f := &UploadedFile{
		originalName: up.Name,
		name:         up.Name,
		mimeType:     up.MimeType,
		folder:       folder,
		cfg:          cfg,
	}

	if up.Open == nil {
		f.errMessage = "upload has no content"
		return f
	}

	rc, err := up.Open()
	if err != nil {
		f.errMessage = err.Error()
		return f
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		f.errMessage = err.Error()
		return f
	}

	if up.Size >= 0 && int64(len(data)) != up.Size {
		f.errMessage = fmt.Sprintf("declared size %d does not match received %d bytes", up.Size, len(data))
		return f
	}

	f.contents = data

	return f
}

// IsValid 报告传输层是否完整接收了文件.
func (f *UploadedFile) IsValid() bool { return f.errMessage == "" }

// ErrorMessage 传输层错误.
func (f *UploadedFile) ErrorMessage() string { return f.errMessage }

// Name 当前文件名（经过清理和自动重命名）.
func (f *UploadedFile) Name() string { return f.name }

// OriginalName 客户端提交的文件名.
func (f *UploadedFile) OriginalName() string { return f.originalName }

// MimeType 客户端声明的 MIME 类型.
func (f *UploadedFile) MimeType() string { return f.mimeType }

// Size 当前内容的字节数.
func (f *UploadedFile) Size() int64 { return int64(len(f.contents)) }

// Contents 当前内容.
func (f *UploadedFile) Contents() []byte { return f.contents }

// Save 替换文件内容.
func (f *UploadedFile) Save(data []byte) { f.contents = data }

// ContentsReader 返回当前内容的读取流.
func (f *UploadedFile) ContentsReader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(f.contents))
}

// SanitizeFilename 替换文件名中的不安全字符.
func (f *UploadedFile) SanitizeFilename() {
	name := f.name

	if f.cfg.ForceASCII {
		name = toASCII(name)
	}

	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))

	if f.cfg.CheckDoubleExtension {
		name = f.fixDoubleExtension(name)
	}

	f.name = name
}

// fixDoubleExtension 不被允许的中间扩展名前的 "." 替换为 "_"，例如 a.php.jpg -> a_php.jpg.
func (f *UploadedFile) fixDoubleExtension(name string) string {
	lead := ""
	if strings.HasPrefix(name, ".") {
		lead, name = ".", name[1:]
	}

	parts := strings.Split(name, ".")
	if len(parts) <= 2 {
		return lead + name
	}

	var b strings.Builder

	b.WriteString(lead)
	b.WriteString(parts[0])

	for _, p := range parts[1 : len(parts)-1] {
		if f.folder.ResourceType.IsAllowedExtension(p) {
			b.WriteByte('.')
		} else {
			b.WriteByte('_')
		}

		b.WriteString(p)
	}

	b.WriteByte('.')
	b.WriteString(parts[len(parts)-1])

	return b.String()
}

func toASCII(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}

	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '_'
		}

		return r
	}, folded)
}

// WasRenamed 报告清理后的文件名是否与提交的不同.
func (f *UploadedFile) WasRenamed() bool { return f.name != f.originalName }

// HasValidFilename 报告文件名是否可以安全存储.
func (f *UploadedFile) HasValidFilename() bool {
	n := f.name
	if n == "" || len(n) > maxFilenameLength || strings.Trim(n, ".") == "" {
		return false
	}

	return !unsafeFilenameChars.MatchString(n)
}

// IsHiddenFile 报告文件名是否匹配 hide_files 中的任一模式.
func (f *UploadedFile) IsHiddenFile() bool {
	return isHiddenName(f.cfg.HideFiles, f.name)
}

func isHiddenName(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}

	return false
}

// Extension 返回不带 "." 的扩展名，保留大小写.
func (f *UploadedFile) Extension() string {
	i := strings.LastIndexByte(f.name, '.')
	if i < 0 {
		return ""
	}

	return f.name[i+1:]
}

// HasAllowedExtension 报告扩展名是否被资源类型允许.
func (f *UploadedFile) HasAllowedExtension() bool {
	return f.folder.ResourceType.IsAllowedExtension(f.Extension())
}

// Autorename 在目标目录已有同名文件时依次尝试 name(1).ext、name(2).ext …，返回是否改名.
func (f *UploadedFile) Autorename(ctx context.Context) (bool, error) {
	ext := path.Ext(f.name)
	base := strings.TrimSuffix(f.name, ext)
	renamed := false

	for i := 1; ; i++ {
		exists, err := f.folder.Exists(ctx, f.name)
		if err != nil {
			return renamed, fmt.Errorf("check %s: %w", f.name, err)
		}

		if !exists {
			return renamed, nil
		}

		f.name = fmt.Sprintf("%s(%d)%s", base, i, ext)
		renamed = true
	}
}

// IsAllowedHTMLFile 报告扩展名是否允许包含 HTML.
func (f *UploadedFile) IsAllowedHTMLFile() bool {
	ext := strings.ToLower(f.Extension())

	return slices.ContainsFunc(f.cfg.HTMLExtensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

// ContainsHTML 检查内容开头是否像 HTML 或脚本.
func (f *UploadedFile) ContainsHTML() bool {
	chunk := f.contents
	if len(chunk) > htmlSniffLength {
		chunk = chunk[:htmlSniffLength]
	}

	chunk = bytes.ToLower(chunk)

	for _, re := range htmlPatterns {
		if re.Match(chunk) {
			return true
		}
	}

	return false
}

// IsImage 报告扩展名是否为支持的图片格式.
func (f *UploadedFile) IsImage() bool {
	return IsSupportedImageExtension(f.Extension())
}

// IsValidImage 报告内容是否为可解码的图片.
func (f *UploadedFile) IsValidImage() bool {
	if !strings.HasPrefix(mimetype.Detect(f.contents).String(), "image/") {
		return false
	}

	_, _, err := image.DecodeConfig(bytes.NewReader(f.contents))

	return err == nil
}

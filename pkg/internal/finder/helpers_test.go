package finder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/filedock/pkg/cache"
	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
	"github.com/yeisme/filedock/pkg/internal/storage/kv"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type fixture struct {
	cfg    *configs.FinderConfig
	deps   *finder.Deps
	files  backend.Backend
	thumbs *backend.AferoBackend
	cache  *finder.CacheManager
}

func testConfig() *configs.FinderConfig {
	return &configs.FinderConfig{
		SecureImageUploads:    true,
		CheckSizeAfterScaling: true,
		CheckDoubleExtension:  true,
		HTMLExtensions:        []string{"html", "htm", "xml", "js"},
		HideFiles:             []string{".*"},
		Images:                configs.FinderImagesConfig{MaxWidth: 100, MaxHeight: 80, Quality: 80},
		ResourceTypes: []configs.ResourceTypeConfig{
			{
				Name: "Files", Backend: "default", Directory: "files",
				AllowedExtensions: []string{"txt", "html", "jpg", "png", "gif", "bmp", "webp", "tar", "gz"},
			},
			{
				Name: "Images", Backend: "default", Directory: "images",
				AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"},
			},
		},
		ACL: []configs.ACLRuleConfig{
			{Role: "*", ResourceType: "*", Folder: "/", Allow: []string{"FOLDER_VIEW", "FILE_VIEW", "FILE_CREATE"}},
		},
	}
}

// seededNames 返回确定性的文件名生成器，相同调用序列生成相同文件名.
func seededNames() *finder.NameGenerator {
	return &finder.NameGenerator{
		Now:  func() time.Time { return fixedNow },
		Rand: rand.New(rand.NewPCG(1, 2)),
	}
}

func newFixture(t *testing.T, mutate func(cfg *configs.FinderConfig)) *fixture {
	t.Helper()

	return newFixtureWith(t, backend.NewAferoBackend("default", afero.NewMemMapFs(), "/userfiles/"), mutate)
}

func newFixtureWith(t *testing.T, files backend.Backend, mutate func(cfg *configs.FinderConfig)) *fixture {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	thumbs := backend.NewAferoBackend("thumbs", afero.NewMemMapFs(), "")

	rts, err := finder.NewResourceTypes(cfg.ResourceTypes, backend.NewRegistryOf(files, thumbs))
	if err != nil {
		t.Fatalf("resource types: %v", err)
	}

	acl, err := finder.NewACL(cfg.ACL)
	if err != nil {
		t.Fatalf("acl: %v", err)
	}

	store, err := kv.NewKVStore(context.Background(), configs.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("kv: %v", err)
	}

	cm := finder.NewCacheManager(cache.NewCache(store), time.Hour)

	return &fixture{
		cfg:    cfg,
		files:  files,
		thumbs: thumbs,
		cache:  cm,
		deps: &finder.Deps{
			Config:        cfg,
			ResourceTypes: rts,
			ACL:           acl,
			Cache:         cm,
			Thumbnails:    finder.NewThumbnailRepository(thumbs),
			Translator:    finder.NewTranslator("en"),
			Names:         seededNames(),
			Now:           func() time.Time { return fixedNow },
			UploadMaxSize: 64 << 20,
		},
	}
}

func (f *fixture) connector(hooks ...finder.HookSet) *finder.Connector {
	return finder.NewConnector(f.deps, finder.NewTable(finder.DefaultCommands()...), hooks...)
}

func (f *fixture) put(t *testing.T, p string, data []byte) {
	t.Helper()

	if _, err := f.files.Put(context.Background(), p, bytes.NewReader(data), int64(len(data)), ""); err != nil {
		t.Fatalf("put %s: %v", p, err)
	}
}

func (f *fixture) read(t *testing.T, p string) []byte {
	t.Helper()

	rc, err := f.files.Open(context.Background(), p)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}

	return data
}

func (f *fixture) list(t *testing.T, dir string) []backend.FileInfo {
	t.Helper()

	entries, err := f.files.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("list %s: %v", dir, err)
	}

	return entries
}

func newUpload(name string, data []byte) *finder.Upload {
	return &finder.Upload{
		Name:     name,
		MimeType: "application/octet-stream",
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func uploadRequest(resourceType, name string, data []byte) *finder.Request {
	return &finder.Request{
		Command:       finder.CommandFileUpload,
		Method:        http.MethodPost,
		ResourceType:  resourceType,
		CurrentFolder: "/",
		Role:          "editor",
		Upload:        newUpload(name, data),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

func errorNumber(t *testing.T, resp *finder.Response) finder.ErrorNumber {
	t.Helper()

	e, ok := resp.Body["error"].(map[string]any)
	if !ok {
		return finder.ErrNone
	}

	n, ok := e["number"].(finder.ErrorNumber)
	if !ok {
		t.Fatalf("error number has type %T", e["number"])
	}

	return n
}

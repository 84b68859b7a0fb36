package finder_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
)

var storedName = regexp.MustCompile(`^\d{14}\d{6}\.txt$`)

func TestFileUploadStoresUnderGeneratedName(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "notes.txt", []byte("hello")))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}

	name, _ := resp.Body["fileName"].(string)
	if !storedName.MatchString(name) {
		t.Fatalf("fileName = %q", name)
	}

	if !strings.HasPrefix(name, "20261017093000") {
		t.Fatalf("fileName %q does not start with the clock timestamp", name)
	}

	if got := resp.Body["uploaded"]; got != int64(5) {
		t.Fatalf("uploaded = %v, want 5", got)
	}

	if _, ok := resp.Body["error"]; ok {
		t.Fatalf("unexpected warning: %v", resp.Body["error"])
	}

	if got := string(f.read(t, "files/"+name)); got != "hello" {
		t.Fatalf("stored content = %q", got)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestFileUploadRejectsDisallowedExtension(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "bad name.exe", []byte("MZ")))
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Status)
	}

	if n := errorNumber(t, resp); n != finder.ErrInvalidExtension {
		t.Fatalf("error number = %d, want %d", n, finder.ErrInvalidExtension)
	}

	if _, ok := resp.Body["fileName"]; ok {
		t.Fatal("hard failure must not carry an outcome")
	}

	if entries := f.list(t, "files"); len(entries) != 0 {
		t.Fatalf("storage written: %v", entries)
	}
}

func TestFileUploadSanitizedNameWarning(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "a:b.txt", []byte("x")))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}

	if n := errorNumber(t, resp); n != finder.ErrUploadedInvalidNameRenamed {
		t.Fatalf("warning = %d, want %d", n, finder.ErrUploadedInvalidNameRenamed)
	}

	name := resp.Body["fileName"].(string)
	msg := resp.Body["error"].(map[string]any)["message"].(string)

	if !strings.Contains(msg, name) {
		t.Fatalf("message %q does not mention %q", msg, name)
	}
}

func TestFileUploadCollisionWarningOverridesSanitize(t *testing.T) {
	f := newFixture(t, nil)
	f.put(t, "files/re_port.txt", []byte("old"))

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "re:port.txt", []byte("new")))

	if n := errorNumber(t, resp); n != finder.ErrUploadedFileRenamed {
		t.Fatalf("warning = %d, want %d", n, finder.ErrUploadedFileRenamed)
	}

	if got := string(f.read(t, "files/re_port.txt")); got != "old" {
		t.Fatalf("existing file overwritten: %q", got)
	}
}

func TestFileUploadOverwriteSkipsAutorenameAndDropsThumbnails(t *testing.T) {
	f := newFixture(t, func(cfg *configs.FinderConfig) { cfg.OverwriteOnUpload = true })
	f.put(t, "files/report.txt", []byte("old"))

	predicted := seededNames().Generate("txt")
	thumb := "Files/" + predicted + "/150x150.txt"

	if err := afero.WriteFile(f.thumbs.Fs(), thumb, []byte("thumb"), 0o644); err != nil {
		t.Fatalf("seed thumbnail: %v", err)
	}

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "report.txt", []byte("new")))
	if n := errorNumber(t, resp); n != finder.ErrNone {
		t.Fatalf("warning = %d, want none", n)
	}

	if resp.Body["fileName"] != predicted {
		t.Fatalf("fileName = %v, want %s", resp.Body["fileName"], predicted)
	}

	if ok, _ := afero.Exists(f.thumbs.Fs(), thumb); ok {
		t.Fatal("thumbnail not deleted")
	}
}

func TestFileUploadHiddenFileIsInvalidName(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", ".secret.txt", []byte("x")))
	if n := errorNumber(t, resp); n != finder.ErrInvalidName {
		t.Fatalf("error number = %d, want %d", n, finder.ErrInvalidName)
	}
}

func TestFileUploadHTMLContent(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.connector()
	page := []byte("<!DOCTYPE html><html><body>hi</body></html>")

	resp := conn.Execute(context.Background(), uploadRequest("Files", "page.txt", page))
	if n := errorNumber(t, resp); n != finder.ErrUploadedWrongHTMLFile {
		t.Fatalf("txt with html: error number = %d, want %d", n, finder.ErrUploadedWrongHTMLFile)
	}

	resp = conn.Execute(context.Background(), uploadRequest("Files", "page.html", page))
	if resp.Status != http.StatusOK {
		t.Fatalf("html file rejected: %v", resp.Body)
	}
}

func TestFileUploadCorruptImage(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "photo.png", []byte("definitely not a png")))
	if n := errorNumber(t, resp); n != finder.ErrUploadedCorrupt {
		t.Fatalf("error number = %d, want %d", n, finder.ErrUploadedCorrupt)
	}
}

func TestFileUploadSizeCheckedBeforeScaling(t *testing.T) {
	f := newFixture(t, func(cfg *configs.FinderConfig) {
		cfg.CheckSizeAfterScaling = false
		cfg.ResourceTypes[1].MaxSize = "1K"
	})

	predicted := seededNames().Generate("png")

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "big.png", pngBytes(t, 300, 200)))
	if n := errorNumber(t, resp); n != finder.ErrUploadedTooBig {
		t.Fatalf("error number = %d, want %d", n, finder.ErrUploadedTooBig)
	}

	if _, ok, _ := f.cache.Get(context.Background(), "Images/"+predicted); ok {
		t.Fatal("image processed before size check")
	}
}

func TestFileUploadResizesOversizedImage(t *testing.T) {
	f := newFixture(t, nil)
	original := pngBytes(t, 300, 200)

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "wide.png", original))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}

	name := resp.Body["fileName"].(string)
	stored := f.read(t, "images/"+name)

	if bytes.Equal(stored, original) {
		t.Fatal("stored bytes equal the original")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}

	if format != "png" || cfg.Width != 100 || cfg.Height != 67 {
		t.Fatalf("stored = %s %dx%d, want png 100x67", format, cfg.Width, cfg.Height)
	}

	info, ok, err := f.cache.Get(context.Background(), finder.CombinePath("Images", "/", name))
	if err != nil || !ok {
		t.Fatalf("cached info: ok=%v err=%v", ok, err)
	}

	if info.Width > 100 || info.Height > 80 || info.Size != int64(len(stored)) {
		t.Fatalf("cached info = %+v", info)
	}
}

func TestFileUploadCachesInfoForSmallImage(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "small.png", pngBytes(t, 20, 10)))
	name := resp.Body["fileName"].(string)

	info, ok, _ := f.cache.Get(context.Background(), finder.CombinePath("Images", "/", name))
	if !ok || info.Width != 20 || info.Height != 10 {
		t.Fatalf("cached info = %+v, ok = %v", info, ok)
	}
}

func TestFileUploadRejectsImageOverPixelLimit(t *testing.T) {
	f := newFixture(t, func(cfg *configs.FinderConfig) {
		cfg.Images.MaxPixels = 1_000_000
	})

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4000, 4000))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	if buf.Len() > 256<<10 {
		t.Fatalf("blank png is %d bytes, expected a small file", buf.Len())
	}

	predicted := seededNames().Generate("png")

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "blank.png", buf.Bytes()))
	if n := errorNumber(t, resp); n != finder.ErrUploadedTooBig {
		t.Fatalf("error number = %d, want %d", n, finder.ErrUploadedTooBig)
	}

	if entries := f.list(t, "images"); len(entries) != 0 {
		t.Fatalf("stored entries = %+v", entries)
	}

	if _, ok, _ := f.cache.Get(context.Background(), finder.CombinePath("Images", "/", predicted)); ok {
		t.Fatal("image info cached for a rejected upload")
	}

	resp = f.connector().Execute(context.Background(), uploadRequest("Images", "small.png", pngBytes(t, 20, 10)))
	if resp.Status != http.StatusOK {
		t.Fatalf("image under the limit: status = %d, body = %v", resp.Status, resp.Body)
	}
}

func TestFileUploadSizeCheckedAfterScaling(t *testing.T) {
	f := newFixture(t, func(cfg *configs.FinderConfig) {
		cfg.ResourceTypes[1].MaxSize = "100B"
	})

	resp := f.connector().Execute(context.Background(), uploadRequest("Images", "wide.png", pngBytes(t, 300, 200)))
	if n := errorNumber(t, resp); n != finder.ErrUploadedTooBig {
		t.Fatalf("error number = %d, want %d", n, finder.ErrUploadedTooBig)
	}
}

func TestFileUploadCancelledByHook(t *testing.T) {
	f := newFixture(t, nil)

	stop := func(d *finder.Dispatcher) {
		d.On(finder.EventFileUpload, func(context.Context, finder.Event) bool { return false })
	}

	resp := f.connector(stop).Execute(context.Background(), uploadRequest("Files", "a.txt", []byte("data")))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}

	if resp.Body["uploaded"] != int64(0) {
		t.Fatalf("uploaded = %v, want 0", resp.Body["uploaded"])
	}

	if _, ok := resp.Body["error"]; ok {
		t.Fatal("cancelled upload must not carry a warning")
	}

	if entries := f.list(t, "files"); len(entries) != 0 {
		t.Fatalf("storage written: %v", entries)
	}
}

func TestFileUploadAsPlainText(t *testing.T) {
	f := newFixture(t, nil)

	req := uploadRequest("Files", "a.txt", []byte("data"))
	req.AsPlainText = true

	resp := f.connector().Execute(context.Background(), req)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestFileUploadMissingOrBrokenUpload(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.connector()

	req := uploadRequest("Files", "a.txt", nil)
	req.Upload = nil

	if n := errorNumber(t, conn.Execute(context.Background(), req)); n != finder.ErrUploadedInvalid {
		t.Fatalf("missing upload: number = %d", n)
	}

	req = uploadRequest("Files", "a.txt", nil)
	req.Upload.Open = func() (io.ReadCloser, error) { return nil, errors.New("multipart: truncated") }

	if n := errorNumber(t, conn.Execute(context.Background(), req)); n != finder.ErrUploadedInvalid {
		t.Fatalf("broken upload: number = %d", n)
	}

	req = uploadRequest("Files", "a.txt", []byte("abc"))
	req.Upload.Size = 10

	if n := errorNumber(t, conn.Execute(context.Background(), req)); n != finder.ErrUploadedInvalid {
		t.Fatalf("size mismatch: number = %d", n)
	}
}

type failingBackend struct {
	*backend.AferoBackend
}

func (failingBackend) Put(context.Context, string, io.Reader, int64, string) (int64, error) {
	return 0, errors.New("read-only file system")
}

func TestFileUploadStorageFailureIsAccessDeniedWarning(t *testing.T) {
	files := failingBackend{backend.NewAferoBackend("default", afero.NewMemMapFs(), "")}
	f := newFixtureWith(t, files, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "a.txt", []byte("data")))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}

	if n := errorNumber(t, resp); n != finder.ErrAccessDenied {
		t.Fatalf("warning = %d, want %d", n, finder.ErrAccessDenied)
	}

	if resp.Body["uploaded"] != int64(0) {
		t.Fatalf("uploaded = %v", resp.Body["uploaded"])
	}
}

func TestFileUploadEmptyFileIsStoredWithoutWarning(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", "empty.txt", nil))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}

	if _, ok := resp.Body["error"]; ok {
		t.Fatalf("empty upload reported a warning: %v", resp.Body["error"])
	}

	if resp.Body["uploaded"] != int64(0) {
		t.Fatalf("uploaded = %v", resp.Body["uploaded"])
	}

	name, _ := resp.Body["fileName"].(string)
	if data := f.read(t, "files/"+name); len(data) != 0 {
		t.Fatalf("stored %d bytes for an empty upload", len(data))
	}
}

func TestFileUploadNeverKeepsClientName(t *testing.T) {
	f := newFixture(t, nil)
	clash := seededNames().Generate("txt")

	resp := f.connector().Execute(context.Background(), uploadRequest("Files", clash, []byte("x")))

	name := resp.Body["fileName"].(string)
	if name == clash || !storedName.MatchString(name) {
		t.Fatalf("fileName = %q, client name = %q", name, clash)
	}
}

func TestFileUploadGeneratedNamesDiffer(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.connector()
	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		resp := conn.Execute(context.Background(), uploadRequest("Files", "same.txt", []byte("x")))

		name := resp.Body["fileName"].(string)
		if seen[name] {
			t.Fatalf("duplicate generated name %s", name)
		}

		seen[name] = true
	}
}

func TestQuickUploadReturnsURL(t *testing.T) {
	f := newFixture(t, nil)

	req := uploadRequest("Files", "a.txt", []byte("data"))
	req.Command = finder.CommandQuickUpload

	resp := f.connector().Execute(context.Background(), req)

	name := resp.Body["fileName"].(string)
	if got := resp.Body["url"]; got != "/userfiles/files/"+name {
		t.Fatalf("url = %v", got)
	}
}

func TestUploadEventsReachHookSets(t *testing.T) {
	f := newFixture(t, nil)

	var uploaded []*finder.FileUploadedEvent

	var rejected []*finder.FileRejectedEvent

	record := func(d *finder.Dispatcher) {
		d.On(finder.EventFileUploaded, func(_ context.Context, ev finder.Event) bool {
			uploaded = append(uploaded, ev.(*finder.FileUploadedEvent))
			return true
		})
		d.On(finder.EventFileRejected, func(_ context.Context, ev finder.Event) bool {
			rejected = append(rejected, ev.(*finder.FileRejectedEvent))
			return true
		})
	}

	conn := f.connector(record)
	conn.Execute(context.Background(), uploadRequest("Files", "ok.txt", []byte("data")))
	conn.Execute(context.Background(), uploadRequest("Files", "bad.exe", []byte("data")))

	if len(uploaded) != 1 || uploaded[0].OriginalName != "ok.txt" || uploaded[0].Size != 4 {
		t.Fatalf("uploaded events = %+v", uploaded)
	}

	if len(rejected) != 1 || rejected[0].Number != finder.ErrInvalidExtension || rejected[0].OriginalName != "bad.exe" {
		t.Fatalf("rejected events = %+v", rejected)
	}
}

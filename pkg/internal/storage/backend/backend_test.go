package backend_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
)

func newRegistry(t *testing.T) *backend.Registry {
	t.Helper()

	reg, err := backend.NewRegistry(context.Background(), []configs.BackendConfig{
		{Name: "mem", Adapter: configs.AdapterMemory, BaseURL: "/userfiles/"},
		{Name: "disk", Adapter: configs.AdapterLocal, Root: t.TempDir()},
	}, backend.Deps{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	return reg
}

func exercise(t *testing.T, b backend.Backend) {
	t.Helper()

	ctx := context.Background()

	if ok, err := b.Exists(ctx, "images/a.png"); err != nil || ok {
		t.Fatalf("Exists before Put = %v, %v", ok, err)
	}

	n, err := b.Put(ctx, "images/a.png", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil || n != 9 {
		t.Fatalf("Put = %d, %v", n, err)
	}

	if _, err := b.Put(ctx, "images/sub/b.txt", strings.NewReader("b"), 1, "text/plain"); err != nil {
		t.Fatalf("Put nested: %v", err)
	}

	if ok, _ := b.Exists(ctx, "/images/a.png"); !ok {
		t.Fatal("Exists after Put = false")
	}

	if ok, _ := b.Exists(ctx, "images/sub"); ok {
		t.Fatal("directory reported as file")
	}

	rc, err := b.Open(ctx, "images/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	data, _ := io.ReadAll(rc)
	_ = rc.Close()

	if string(data) != "png-bytes" {
		t.Fatalf("content = %q", data)
	}

	if _, err := b.Open(ctx, "images/missing.png"); !errors.Is(err, backend.ErrNotExist) {
		t.Fatalf("Open missing: want ErrNotExist, got %v", err)
	}

	list, err := b.List(ctx, "images/")
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %+v, %v", list, err)
	}

	if list[0].Name != "a.png" || list[0].Size != 9 || list[0].IsDir || list[1].Name != "sub" || !list[1].IsDir {
		t.Fatalf("List entries = %+v", list)
	}

	if empty, err := b.List(ctx, "nowhere"); err != nil || len(empty) != 0 {
		t.Fatalf("List missing dir = %+v, %v", empty, err)
	}

	if err := b.DeletePrefix(ctx, "images/sub"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}

	if err := b.DeletePrefix(ctx, "images/sub"); err != nil {
		t.Fatalf("DeletePrefix twice: %v", err)
	}

	if ok, _ := b.Exists(ctx, "images/sub/b.txt"); ok {
		t.Fatal("file survived DeletePrefix")
	}

	if err := b.DeletePrefix(ctx, "/"); err == nil {
		t.Fatal("DeletePrefix on root should fail")
	}

	if _, err := b.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("Put outside root should fail")
	}
}

func TestMemoryBackend(t *testing.T) {
	b, ok := newRegistry(t).Get("mem")
	if !ok {
		t.Fatal("mem backend missing")
	}

	exercise(t, b)

	if got := b.URL("images/a.png"); got != "/userfiles/images/a.png" {
		t.Errorf("URL = %q", got)
	}
}

func TestLocalBackend(t *testing.T) {
	b, ok := newRegistry(t).Get("disk")
	if !ok {
		t.Fatal("disk backend missing")
	}

	exercise(t, b)

	if got := b.URL("a.png"); got != "" {
		t.Errorf("URL without base_url = %q", got)
	}
}

func TestRegistryErrors(t *testing.T) {
	_, err := backend.NewRegistry(context.Background(), []configs.BackendConfig{
		{Name: "x", Adapter: "ftp"},
	}, backend.Deps{})
	if err == nil {
		t.Fatal("expected unsupported adapter error")
	}

	_, err = backend.NewRegistry(context.Background(), []configs.BackendConfig{
		{Name: "remote", Adapter: configs.AdapterS3, Bucket: "files"},
	}, backend.Deps{})
	if err == nil {
		t.Fatal("expected error for s3 adapter without client")
	}
}

func TestRegistryNames(t *testing.T) {
	if got := newRegistry(t).Names(); len(got) != 2 || got[0] != "disk" || got[1] != "mem" {
		t.Fatalf("Names = %v", got)
	}
}

func TestRegisteredAdapters(t *testing.T) {
	got := backend.RegisteredAdapters()
	want := []configs.BackendAdapter{configs.AdapterLocal, configs.AdapterMemory, configs.AdapterS3}

	if len(got) != len(want) {
		t.Fatalf("RegisteredAdapters = %v", got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RegisteredAdapters[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"/":             "",
		"":              "",
		"/images/a.png": "images/a.png",
		"images//x/":    "images/x",
		"./images/./a":  "images/a",
	}

	for in, want := range cases {
		got, err := backend.Clean(in)
		if err != nil || got != want {
			t.Errorf("Clean(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := backend.Clean("/a/../../etc"); err == nil {
		t.Error("Clean should reject ..")
	}
}

func TestFirstRemoveErrorDrainsChannel(t *testing.T) {
	errs := make(chan minio.RemoveObjectError)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(errs)

		errs <- minio.RemoveObjectError{ObjectName: "a/1.png", Err: errors.New("access denied")}
		errs <- minio.RemoveObjectError{ObjectName: "a/2.png", Err: errors.New("access denied")}
		errs <- minio.RemoveObjectError{ObjectName: "a/3.png"}
	}()

	err := backend.FirstRemoveError(errs)
	if err == nil || !strings.Contains(err.Error(), "a/1.png") {
		t.Fatalf("err = %v, want the first failure", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender still blocked after FirstRemoveError returned")
	}
}

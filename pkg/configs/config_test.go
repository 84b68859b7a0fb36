package configs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeisme/filedock/pkg/configs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestInitConfigDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  reload_config: false\n")

	if err := configs.InitConfig(path); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	cfg := configs.GetConfig()
	if cfg.Server.Port != configs.DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, configs.DefaultPort)
	}

	f := cfg.Finder
	if f.OverwriteOnUpload || !f.SecureImageUploads || !f.CheckSizeAfterScaling {
		t.Errorf("unexpected upload flags: %+v", f)
	}

	if len(f.ResourceTypes) != 2 || f.ResourceTypes[1].Name != "Images" {
		t.Fatalf("default resource types = %+v", f.ResourceTypes)
	}

	if len(f.HideFiles) != 1 || f.HideFiles[0] != ".*" {
		t.Errorf("hide_files = %v", f.HideFiles)
	}

	if f.Images.MaxPixels != configs.DefaultImageMaxPixels {
		t.Errorf("images.max_pixels = %d", f.Images.MaxPixels)
	}

	if f.Cache.TTL != configs.DefaultFinderCacheTTL {
		t.Errorf("cache ttl = %v", f.Cache.TTL)
	}
}

func TestInitConfigFinderSection(t *testing.T) {
	path := writeConfig(t, `
server:
  reload_config: false
finder:
  overwrite_on_upload: true
  images:
    max_width: 800
    max_height: 600
    quality: 90
  backends:
    - name: mem
      adapter: memory
  thumbnails:
    backend: mem
  resource_types:
    - name: Docs
      backend: mem
      directory: docs
      max_size: 2MB
      allowed_extensions: [pdf, txt]
  acl:
    - role: editor
      resource_type: Docs
      folder: /drafts/
      allow: [FILE_VIEW, FILE_CREATE]
`)

	if err := configs.InitConfig(path); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	f := configs.GetConfig().Finder
	if !f.OverwriteOnUpload || f.Images.MaxWidth != 800 || f.Images.Quality != 90 {
		t.Errorf("finder overrides not applied: %+v", f)
	}

	if len(f.ResourceTypes) != 1 {
		t.Fatalf("resource types = %+v", f.ResourceTypes)
	}

	size, err := f.ResourceTypes[0].MaxSizeBytes()
	if err != nil || size != 2_000_000 {
		t.Errorf("MaxSizeBytes = %d, %v", size, err)
	}

	if len(f.ACL) != 1 || f.ACL[0].Folder != "/drafts/" {
		t.Errorf("acl = %+v", f.ACL)
	}
}

func TestInitConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
server:
  reload_config: false
finder:
  backends:
    - name: mem
      adapter: memory
  thumbnails:
    backend: mem
  resource_types:
    - name: Files
      backend: missing
`)

	if err := configs.InitConfig(path); err == nil {
		t.Fatal("expected error for unknown backend reference")
	}
}

func TestMaxSizeBytesHumanStrings(t *testing.T) {
	cases := map[string]int64{
		"":      0,
		"0":     0,
		"512K":  512_000,
		"1MiB":  1 << 20,
		"10 MB": 10_000_000,
	}

	for in, want := range cases {
		rt := configs.ResourceTypeConfig{Name: "Files", MaxSize: in}

		got, err := rt.MaxSizeBytes()
		if err != nil || got != want {
			t.Errorf("MaxSizeBytes(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
}

func TestOnReloadReceivesChangedConfig(t *testing.T) {
	path := writeConfig(t, "server:\n  reload_config: true\nfinder:\n  overwrite_on_upload: false\n")

	if err := configs.InitConfig(path); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	reloaded := make(chan bool, 8)
	configs.OnReload(func(cfg *configs.AppConfig) {
		select {
		case reloaded <- cfg.Finder.OverwriteOnUpload:
		default:
		}
	})

	body := "server:\n  reload_config: true\nfinder:\n  overwrite_on_upload: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)

	for {
		select {
		case overwrite := <-reloaded:
			if !overwrite {
				continue
			}

			if !configs.GetConfig().Finder.OverwriteOnUpload {
				t.Fatal("global config not updated before reload hooks ran")
			}

			return
		case <-deadline:
			t.Fatal("reload hook not called")
		}
	}
}

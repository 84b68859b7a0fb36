package service_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/internal/model"
	"github.com/yeisme/filedock/pkg/internal/service"
	"github.com/yeisme/filedock/pkg/internal/storage"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
	"github.com/yeisme/filedock/pkg/internal/storage/db"
	"github.com/yeisme/filedock/pkg/internal/storage/kv"
	"github.com/yeisme/filedock/pkg/internal/storage/mq"
	"github.com/yeisme/filedock/pkg/metrics"
	"github.com/yeisme/filedock/pkg/queue"
)

func testAppConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Server:  configs.ServerConfig{MaxUploadMB: 1},
		Metrics: configs.MetricsConfig{Enabled: true},
		Events: configs.EventsConfig{
			Enabled: true,
			File:    configs.FileEventsConfig{Uploaded: true, Rejected: true},
		},
		Finder: configs.FinderConfig{
			DefaultLanguage: "en",
			HideFiles:       []string{".*"},
			HTMLExtensions:  []string{"html"},
			Images:          configs.FinderImagesConfig{Quality: 80},
			Thumbnails:      configs.FinderThumbsConfig{Backend: "thumbs"},
			Cache:           configs.FinderCacheConfig{TTL: time.Hour},
			ResourceTypes: []configs.ResourceTypeConfig{
				{Name: "Files", Backend: "default", Directory: "files", AllowedExtensions: []string{"txt", "png"}},
			},
			ACL: []configs.ACLRuleConfig{
				{Role: "*", ResourceType: "*", Folder: "/", Allow: []string{"FOLDER_VIEW", "FILE_VIEW", "FILE_CREATE"}},
			},
		},
	}
}

func newManager(t *testing.T) *storage.Manager {
	t.Helper()

	ctx := context.Background()

	kvc, err := kv.NewKVClient(ctx, configs.KVConfig{Type: configs.KVTypeMemory})
	if err != nil {
		t.Fatalf("kv: %v", err)
	}

	dbc, err := db.New(ctx, configs.DBConfig{
		Type:         configs.SQLite,
		Database:     filepath.Join(t.TempDir(), "journal"),
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("db: %v", err)
	}

	mqc, err := mq.New(ctx, configs.MQConfig{Type: configs.MQTypeMemory}, nil)
	if err != nil {
		t.Fatalf("mq: %v", err)
	}

	mgr := &storage.Manager{
		KV: kvc,
		DB: dbc,
		MQ: mqc,
		Backends: backend.NewRegistryOf(
			backend.NewAferoBackend("default", afero.NewMemMapFs(), "/userfiles/"),
			backend.NewAferoBackend("thumbs", afero.NewMemMapFs(), ""),
		),
	}
	t.Cleanup(func() { _ = mgr.Close() })

	return mgr
}

func uploadRequest(name string, data []byte) *finder.Request {
	return &finder.Request{
		Command:       finder.CommandFileUpload,
		Method:        http.MethodPost,
		ResourceType:  "Files",
		CurrentFolder: "/",
		Role:          "editor",
		Upload: &finder.Upload{
			Name:     name,
			MimeType: "text/plain",
			Size:     int64(len(data)),
			Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		},
	}
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestConnectorServiceRecordsUploads(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	uploadedCh, err := mgr.MQ.Subscribe(ctx, queue.TopicFileUploaded)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	rejectedCh, err := mgr.MQ.Subscribe(ctx, queue.TopicFileRejected)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	svc, err := service.NewConnectorService(ctx, testAppConfig(), mgr)
	if err != nil {
		t.Fatalf("NewConnectorService: %v", err)
	}

	stored := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("Files", metrics.ResultStored))
	rejected := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("Files", metrics.ResultRejected))

	ok := svc.Execute(ctx, uploadRequest("notes.txt", []byte("hello")))
	if ok.Status != http.StatusOK {
		t.Fatalf("upload status = %d, body %v", ok.Status, ok.Body)
	}

	fileName, _ := ok.Body["fileName"].(string)

	bad := svc.Execute(ctx, uploadRequest("setup.exe", []byte("MZ")))
	if bad.Status != http.StatusBadRequest {
		t.Fatalf("rejected status = %d", bad.Status)
	}

	rows, err := svc.Journal().Recent(ctx, service.JournalQuery{ResourceType: "Files"})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("journal rows = %d", len(rows))
	}

	byResult := map[string]model.UploadJournal{}
	for _, r := range rows {
		byResult[r.Result] = r
	}

	if r := byResult[model.UploadResultStored]; r.FileName != fileName || r.OriginalName != "notes.txt" || r.Size != 5 || r.Role != "editor" {
		t.Errorf("stored row = %+v", r)
	}

	if r := byResult[model.UploadResultRejected]; r.ErrorNumber != int(finder.ErrInvalidExtension) || r.OriginalName != "setup.exe" {
		t.Errorf("rejected row = %+v", r)
	}

	up, err := queue.ParseFileUploaded(receive(t, uploadedCh))
	if err != nil {
		t.Fatalf("ParseFileUploaded: %v", err)
	}

	if up.Payload.File.FileName != fileName || up.Payload.File.URL != "/userfiles/files/"+fileName || up.Header.Producer != "filedock" {
		t.Errorf("uploaded event = %+v", up)
	}

	rej, err := queue.ParseFileRejected(receive(t, rejectedCh))
	if err != nil {
		t.Fatalf("ParseFileRejected: %v", err)
	}

	if rej.Payload.ErrorNumber != int(finder.ErrInvalidExtension) || rej.Payload.File.ResourceType != "Files" {
		t.Errorf("rejected event = %+v", rej)
	}

	if got := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("Files", metrics.ResultStored)); got != stored+1 {
		t.Errorf("stored counter = %v, want %v", got, stored+1)
	}

	if got := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("Files", metrics.ResultRejected)); got != rejected+1 {
		t.Errorf("rejected counter = %v, want %v", got, rejected+1)
	}
}

func TestNewDeps(t *testing.T) {
	mgr := newManager(t)

	deps, err := service.NewDeps(testAppConfig(), mgr)
	if err != nil {
		t.Fatalf("NewDeps: %v", err)
	}

	if deps.Cache == nil || deps.Thumbnails == nil {
		t.Fatal("cache and thumbnails should be wired")
	}

	if deps.UploadMaxSize != 1<<20 {
		t.Errorf("UploadMaxSize = %d", deps.UploadMaxSize)
	}

	cfg := testAppConfig()
	cfg.Finder.ResourceTypes[0].Backend = "missing"

	if _, err := service.NewDeps(cfg, mgr); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestNotifyHooksDisabled(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	ch, err := mgr.MQ.Subscribe(ctx, queue.TopicFileUploaded)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cfg := testAppConfig()
	cfg.Events.Enabled = false

	svc, err := service.NewConnectorService(ctx, cfg, mgr)
	if err != nil {
		t.Fatalf("NewConnectorService: %v", err)
	}

	if resp := svc.Execute(ctx, uploadRequest("a.txt", []byte("a"))); resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected event %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectorServiceReload(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	svc, err := service.NewConnectorService(ctx, testAppConfig(), mgr)
	if err != nil {
		t.Fatalf("NewConnectorService: %v", err)
	}

	if resp := svc.Execute(ctx, uploadRequest("a.txt", []byte("a"))); resp.Status != http.StatusOK {
		t.Fatalf("status before reload = %d", resp.Status)
	}

	cfg := testAppConfig()
	cfg.Finder.OverwriteOnUpload = true
	cfg.Finder.ResourceTypes[0].AllowedExtensions = []string{"png"}

	if err := svc.Reload(cfg); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if !svc.Deps().Config.OverwriteOnUpload {
		t.Error("overwrite_on_upload not applied")
	}

	resp := svc.Execute(ctx, uploadRequest("b.txt", []byte("b")))
	e, _ := resp.Body["error"].(map[string]any)

	if resp.Status != http.StatusBadRequest || e["number"] != finder.ErrInvalidExtension {
		t.Fatalf("after reload: status = %d, body = %v", resp.Status, resp.Body)
	}

	bad := testAppConfig()
	bad.Finder.ResourceTypes[0].Backend = "missing"

	if err := svc.Reload(bad); err == nil {
		t.Fatal("reload with unknown backend should fail")
	}

	if !svc.Deps().Config.OverwriteOnUpload {
		t.Error("failed reload replaced the previous deps")
	}
}

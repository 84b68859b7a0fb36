package jobs_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/jobs"
	"github.com/yeisme/filedock/pkg/internal/model"
	"github.com/yeisme/filedock/pkg/internal/service"
	"github.com/yeisme/filedock/pkg/internal/storage/db"
	"github.com/yeisme/filedock/pkg/scheduler"
)

func newJournal(t *testing.T) *service.JournalService {
	t.Helper()

	ctx := context.Background()

	dbc, err := db.New(ctx, configs.DBConfig{
		Type:         configs.SQLite,
		Database:     filepath.Join(t.TempDir(), "journal"),
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("db: %v", err)
	}

	t.Cleanup(func() { _ = dbc.Close() })

	j, err := service.NewJournalService(ctx, dbc)
	if err != nil {
		t.Fatalf("NewJournalService: %v", err)
	}

	return j
}

func TestJournalRetention(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	now := time.Date(2026, 10, 17, 3, 20, 0, 0, time.UTC)

	for _, at := range []time.Time{now.Add(-72 * time.Hour), now.Add(-49 * time.Hour), now.Add(-time.Hour)} {
		if err := j.Record(ctx, &model.UploadJournal{ResourceType: "Files", Result: model.UploadResultStored, CreatedAt: at}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	job := jobs.JournalRetention(j, 48*time.Hour, func() time.Time { return now })
	if err := job(ctx); err != nil {
		t.Fatalf("job: %v", err)
	}

	rows, err := j.Recent(ctx, service.JournalQuery{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}

	if len(rows) != 1 || !rows[0].CreatedAt.Equal(now.Add(-time.Hour)) {
		t.Fatalf("rows after retention = %+v", rows)
	}
}

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	t.Cleanup(func() { _ = sched.Shutdown() })

	if err := jobs.RegisterCronJobs(sched, nil, "720h"); err != nil {
		t.Fatalf("nil journal should be skipped: %v", err)
	}

	if n := len(sched.GetJobInfos()); n != 0 {
		t.Fatalf("jobs = %d, want 0", n)
	}

	j := newJournal(t)

	if err := jobs.RegisterCronJobs(sched, j, "forever"); err == nil {
		t.Fatal("invalid retention should fail")
	}

	if err := jobs.RegisterCronJobs(sched, j, "720h"); err != nil {
		t.Fatalf("RegisterCronJobs: %v", err)
	}

	infos := sched.GetJobInfos()
	if len(infos) != 1 || infos[0].Name != jobs.JobJournalRetention || infos[0].CronExpr != jobs.CronJournalRetention {
		t.Fatalf("jobs = %+v", infos)
	}
}

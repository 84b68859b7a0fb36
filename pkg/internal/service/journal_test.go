package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/filedock/pkg/internal/model"
	"github.com/yeisme/filedock/pkg/internal/service"
)

func TestJournalSummaryAndPurge(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	j, err := service.NewJournalService(ctx, mgr.DB)
	if err != nil {
		t.Fatalf("NewJournalService: %v", err)
	}

	old := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	entries := []*model.UploadJournal{
		{ResourceType: "Images", Result: model.UploadResultStored, Size: 100, CreatedAt: old},
		{ResourceType: "Images", Result: model.UploadResultStored, Size: 300, CreatedAt: recent},
		{ResourceType: "Images", Result: model.UploadResultStored, Size: 200, CreatedAt: recent.Add(time.Minute)},
		{ResourceType: "Files", Result: model.UploadResultRejected, ErrorNumber: 105, CreatedAt: recent},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}

		if len(e.ID) != 26 {
			t.Fatalf("ID = %q, want a ULID", e.ID)
		}
	}

	sum, err := j.Summary(ctx, recent)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	want := []service.UploadSummary{
		{ResourceType: "Files", Result: model.UploadResultRejected, Count: 1, Bytes: 0},
		{ResourceType: "Images", Result: model.UploadResultStored, Count: 2, Bytes: 500},
	}
	if len(sum) != len(want) {
		t.Fatalf("Summary = %+v", sum)
	}

	for i := range want {
		if sum[i] != want[i] {
			t.Errorf("Summary[%d] = %+v, want %+v", i, sum[i], want[i])
		}
	}

	latest, err := j.Recent(ctx, service.JournalQuery{ResourceType: "Images", Limit: 1})
	if err != nil || len(latest) != 1 || latest[0].Size != 200 {
		t.Fatalf("Recent = %+v, %v", latest, err)
	}

	n, err := j.Purge(ctx, recent)
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v", n, err)
	}

	all, _ := j.Recent(ctx, service.JournalQuery{})
	if len(all) != 3 {
		t.Fatalf("after purge = %d rows", len(all))
	}
}

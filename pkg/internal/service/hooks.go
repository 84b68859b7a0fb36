package service

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/internal/model"
	nlog "github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/metrics"
	"github.com/yeisme/filedock/pkg/queue"
)

const producerName = "filedock"

// JournalHooks 把上传与拒绝写入上传日志，钩子只观察结果，始终返回 true.
func JournalHooks(j *JournalService) finder.HookSet {
	return func(d *finder.Dispatcher) {
		d.On(finder.EventFileUploaded, func(ctx context.Context, ev finder.Event) bool {
			if e, ok := ev.(*finder.FileUploadedEvent); ok {
				record(ctx, j, uploadedEntry(e))
			}

			return true
		})

		d.On(finder.EventFileRejected, func(ctx context.Context, ev finder.Event) bool {
			if e, ok := ev.(*finder.FileRejectedEvent); ok {
				record(ctx, j, rejectedEntry(e))
			}

			return true
		})
	}
}

func record(ctx context.Context, j *JournalService, entry *model.UploadJournal) {
	if err := j.Record(ctx, entry); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Str("file", entry.FileName).Msg("upload journal")
	}
}

func uploadedEntry(e *finder.FileUploadedEvent) *model.UploadJournal {
	return &model.UploadJournal{
		Command:      e.Command,
		ResourceType: e.Folder.ResourceType.Name,
		Folder:       e.Folder.ClientPath,
		FileName:     e.FileName,
		OriginalName: e.OriginalName,
		ContentType:  e.MimeType,
		Size:         e.Size,
		Role:         e.Role,
		Result:       model.UploadResultStored,
		ErrorNumber:  int(e.Warning),
		CreatedAt:    e.OccurredAt,
	}
}

func rejectedEntry(e *finder.FileRejectedEvent) *model.UploadJournal {
	return &model.UploadJournal{
		Command:      e.Command,
		ResourceType: e.Folder.ResourceType.Name,
		Folder:       e.Folder.ClientPath,
		OriginalName: e.OriginalName,
		Role:         e.Role,
		Result:       model.UploadResultRejected,
		ErrorNumber:  int(e.Number),
		Reason:       e.Reason,
		CreatedAt:    e.OccurredAt,
	}
}

// NotifyHooks 按 events 配置把上传结果发布到消息队列.
func NotifyHooks(pub message.Publisher, cfg configs.EventsConfig) finder.HookSet {
	return func(d *finder.Dispatcher) {
		if !cfg.Enabled {
			return
		}

		if cfg.File.Uploaded {
			d.On(finder.EventFileUploaded, func(ctx context.Context, ev finder.Event) bool {
				if e, ok := ev.(*finder.FileUploadedEvent); ok {
					payload := queue.FileUploadedPayload{
						File:         fileRef(e.Folder, e.FileName),
						OriginalName: e.OriginalName,
						Size:         e.Size,
						ContentType:  e.MimeType,
						Role:         e.Role,
						Warning:      int(e.Warning),
					}

					err := queue.PublishFileUploaded(pub, payload, headerOpts(ctx, e.OccurredAt)...)
					logPublish(ctx, queue.TopicFileUploaded, err)
				}

				return true
			})
		}

		if cfg.File.Rejected {
			d.On(finder.EventFileRejected, func(ctx context.Context, ev finder.Event) bool {
				if e, ok := ev.(*finder.FileRejectedEvent); ok {
					payload := queue.FileRejectedPayload{
						File:         fileRef(e.Folder, ""),
						OriginalName: e.OriginalName,
						ErrorNumber:  int(e.Number),
						Role:         e.Role,
					}

					err := queue.PublishFileRejected(pub, payload, headerOpts(ctx, e.OccurredAt)...)
					logPublish(ctx, queue.TopicFileRejected, err)
				}

				return true
			})
		}
	}
}

func fileRef(folder *finder.WorkingFolder, name string) queue.FileRef {
	ref := queue.FileRef{
		ResourceType: folder.ResourceType.Name,
		Folder:       folder.ClientPath,
		FileName:     name,
		Backend:      folder.ResourceType.Backend.Name(),
	}

	if name != "" {
		ref.URL = folder.FileURL(name)
	}

	return ref
}

func headerOpts(ctx context.Context, at time.Time) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(producerName), queue.WithOccurredAt(at)}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func logPublish(ctx context.Context, topic string, err error) {
	if err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("publish upload event")
	}
}

// MetricsHooks 记录上传计数与写入字节数.
func MetricsHooks() finder.HookSet {
	return func(d *finder.Dispatcher) {
		d.On(finder.EventFileUploaded, func(_ context.Context, ev finder.Event) bool {
			if e, ok := ev.(*finder.FileUploadedEvent); ok {
				metrics.ObserveUpload(e.Folder.ResourceType.Name, metrics.ResultStored, e.Size)
			}

			return true
		})

		d.On(finder.EventFileRejected, func(_ context.Context, ev finder.Event) bool {
			if e, ok := ev.(*finder.FileRejectedEvent); ok {
				metrics.ObserveUpload(e.Folder.ResourceType.Name, metrics.ResultRejected, 0)
			}

			return true
		})
	}
}

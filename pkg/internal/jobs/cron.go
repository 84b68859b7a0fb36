// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/filedock/pkg/internal/service"
	"github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/scheduler"
)

// 任务名称与 cron 表达式.
const (
	JobJournalRetention  = "journal.retention"
	CronJournalRetention = "20 3 * * *"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每天 03:20 删除超出保留时长的上传日志
//
// journal 为 nil（数据库未启用）或 retention 为空时不注册.
func RegisterCronJobs(sched *scheduler.Scheduler, journal *service.JournalService, retention string) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if journal == nil || retention == "" {
		return nil
	}

	keep, err := time.ParseDuration(retention)
	if err != nil {
		return fmt.Errorf("journal retention %q: %w", retention, err)
	}

	if keep <= 0 {
		return fmt.Errorf("journal retention must be positive, got %s", keep)
	}

	return sched.AddCron(JobJournalRetention, CronJournalRetention, JournalRetention(journal, keep, time.Now))
}

// JournalRetention 返回删除 now()-keep 之前上传日志的任务.
func JournalRetention(journal *service.JournalService, keep time.Duration, now func() time.Time) scheduler.JobFunc {
	return func(ctx context.Context) error {
		l := log.Logger().With().Str("job", JobJournalRetention).Logger()

		before := now().UTC().Add(-keep)

		n, err := journal.Purge(ctx, before)
		if err != nil {
			return err
		}

		l.Info().Int64("affected", n).Time("before", before).Msg("purged upload journal")

		return nil
	}
}

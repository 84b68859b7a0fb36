package service

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yeisme/filedock/pkg/internal/model"
	"github.com/yeisme/filedock/pkg/internal/storage/db"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// JournalService 读写上传日志（upload_journal 表）.
type JournalService struct {
	db *db.Client

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewJournalService 创建 JournalService 并迁移表结构.
func NewJournalService(ctx context.Context, dbc *db.Client) (*JournalService, error) {
	if err := dbc.WithContext(ctx).AutoMigrate(&model.UploadJournal{}); err != nil {
		return nil, fmt.Errorf("migrate upload journal: %w", err)
	}

	return &JournalService{db: dbc, entropy: ulid.Monotonic(crand.Reader, 0)}, nil
}

// newID 生成按时间有序的 ULID.
func (s *JournalService) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Record 写入一条日志，ID 与时间为空时自动填充.
func (s *JournalService) Record(ctx context.Context, entry *model.UploadJournal) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if entry.ID == "" {
		entry.ID = s.newID(entry.CreatedAt)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record upload journal: %w", err)
	}

	return nil
}

// JournalQuery 日志查询条件，零值字段不参与过滤.
type JournalQuery struct {
	ResourceType string
	Result       string
	Since        time.Time
	Limit        int
}

// Recent 按时间倒序返回日志.
func (s *JournalService) Recent(ctx context.Context, q JournalQuery) ([]model.UploadJournal, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultJournalLimit
	}

	limit = min(limit, maxJournalLimit)

	tx := s.db.WithContext(ctx).Model(&model.UploadJournal{})
	if q.ResourceType != "" {
		tx = tx.Where("resource_type = ?", q.ResourceType)
	}

	if q.Result != "" {
		tx = tx.Where("result = ?", q.Result)
	}

	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since)
	}

	var rows []model.UploadJournal
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query upload journal: %w", err)
	}

	return rows, nil
}

// UploadSummary 某资源类型与结果的聚合.
type UploadSummary struct {
	ResourceType string `gorm:"column:resource_type" json:"resource_type"`
	Result       string `gorm:"column:result"        json:"result"`
	Count        int64  `gorm:"column:cnt"           json:"count"`
	Bytes        int64  `gorm:"column:bytes"         json:"bytes"`
}

// Summary 按资源类型与结果聚合 since 之后的日志.
func (s *JournalService) Summary(ctx context.Context, since time.Time) ([]UploadSummary, error) {
	var rows []UploadSummary

	err := s.db.WithContext(ctx).
		Model(&model.UploadJournal{}).
		Select("resource_type, result, COUNT(*) AS cnt, COALESCE(SUM(size),0) AS bytes").
		Where("created_at >= ?", since).
		Group("resource_type, result").
		Order("resource_type, result").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summarize upload journal: %w", err)
	}

	return rows, nil
}

// Purge 删除 before 之前的日志，返回删除条数.
func (s *JournalService) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&model.UploadJournal{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge upload journal: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Package model 定义持久化模型.
package model

import (
	"time"
)

// 上传日志结果取值.
const (
	UploadResultStored   = "stored"
	UploadResultRejected = "rejected"
)

// UploadJournal 上传日志，每次 FileUpload / QuickUpload 记录一条.
type UploadJournal struct {
	ID           string `gorm:"primaryKey;size:26"  json:"id"` // ULID
	Command      string `gorm:"size:32"             json:"command"`
	ResourceType string `gorm:"size:128;index"      json:"resource_type"`
	Folder       string `gorm:"size:1024"           json:"folder"`
	FileName     string `gorm:"size:512"            json:"file_name"`
	OriginalName string `gorm:"size:512"            json:"original_name"`
	ContentType  string `gorm:"size:255"            json:"content_type"`
	Size         int64  `json:"size"`
	Role         string `gorm:"size:128;index"      json:"role"`
	Result       string `gorm:"size:16;index"       json:"result"`
	// ErrorNumber 为拒绝码或警告码，0 表示无
	ErrorNumber int       `json:"error_number"`
	Reason      string    `gorm:"size:1024"          json:"reason,omitempty"`
	CreatedAt   time.Time `gorm:"index"              json:"created_at"`
}

// TableName 指定表名.
func (UploadJournal) TableName() string {
	return "upload_journal"
}

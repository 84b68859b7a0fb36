// Package storage 聚合连接器依赖的存储资源：文件后端、上传日志数据库、对象存储、KV 缓存与消息队列.
//
// Example:
//
// 初始化
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx, configs.GetConfig(), metrics.GetRegistry())
//
//	if err != nil {
//		// 处理错误
//	}
//
// 获取存储客户端
//
//	backends := mgr.GetBackends()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/storage/backend"
	dbc "github.com/yeisme/filedock/pkg/internal/storage/db"
	kvc "github.com/yeisme/filedock/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filedock/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filedock/pkg/internal/storage/s3"
	nlog "github.com/yeisme/filedock/pkg/log"
)

// Manager 聚合所有存储资源，未启用的组件为 nil.
type Manager struct {
	S3       *s3c.Client
	DB       *dbc.Client
	KV       *kvc.Client
	MQ       *mqc.Client
	Backends *backend.Registry
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 按配置初始化默认存储.重复调用只返回已初始化实例.
func Init(ctx context.Context, cfg *configs.AppConfig, reg prometheus.Registerer) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, cfg, reg)
		if mgrErr == nil {
			nlog.Logger().Info().Strs("backends", mgr.Backends.Names()).Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

// New 创建一个独立的 Manager，失败时关闭已打开的资源.
func New(ctx context.Context, cfg *configs.AppConfig, reg prometheus.Registerer) (*Manager, error) {
	m := &Manager{}

	var err error

	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	// S3
	if cfg.S3.Enabled {
		if m.S3, err = s3c.New(cfg.S3); err != nil {
			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	// 文件后端
	if m.Backends, err = backend.NewRegistry(ctx, cfg.Finder.Backends, backend.Deps{S3: m.S3}); err != nil {
		return nil, err
	}

	// KV
	if m.KV, err = kvc.NewKVClient(ctx, cfg.KV); err != nil {
		return nil, fmt.Errorf("init kv: %w", err)
	}

	// DB
	if cfg.DB.Enabled {
		opts := []dbc.Option{}
		if cfg.Metrics.Enabled {
			opts = append(opts, dbc.WithMetrics())
		}

		if m.DB, err = dbc.New(ctx, cfg.DB, opts...); err != nil {
			return nil, err
		}
	}

	// MQ
	if cfg.MQ.Enabled {
		if !cfg.Metrics.Enabled {
			reg = nil
		}

		if m.MQ, err = mqc.New(ctx, cfg.MQ, reg); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Close 关闭所有已打开的连接.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}

// GetBackends 获取文件后端注册表.
func (m *Manager) GetBackends() *backend.Registry {
	return m.Backends
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

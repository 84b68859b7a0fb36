// Package service 组装连接器依赖并提供上传日志等业务服务.
package service

import (
	"context"
	"fmt"

	"github.com/yeisme/filedock/pkg/cache"
	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/internal/storage"
	nlog "github.com/yeisme/filedock/pkg/log"
)

// ConnectorService 持有按配置组装好的 finder.Connector.
type ConnectorService struct {
	connector *finder.Connector
	mgr       *storage.Manager
	journal   *JournalService
}

// NewConnectorService 由配置与存储资源组装连接器.
// DB 未启用时不记录上传日志，MQ 未启用时不发布事件.
func NewConnectorService(ctx context.Context, cfg *configs.AppConfig, mgr *storage.Manager) (*ConnectorService, error) {
	deps, err := NewDeps(cfg, mgr)
	if err != nil {
		return nil, err
	}

	s := &ConnectorService{mgr: mgr}
	hooks := []finder.HookSet{}

	if cfg.Metrics.Enabled {
		hooks = append(hooks, MetricsHooks())
	}

	if mgr.DB != nil {
		if s.journal, err = NewJournalService(ctx, mgr.DB); err != nil {
			return nil, err
		}

		hooks = append(hooks, JournalHooks(s.journal))
	}

	if mgr.MQ != nil {
		hooks = append(hooks, NotifyHooks(mgr.MQ.Publisher(), cfg.Events))
	}

	s.connector = finder.NewConnector(deps, finder.NewTable(finder.DefaultCommands()...), hooks...)

	nlog.Logger().Info().
		Strs("commands", s.connector.Commands()).
		Int("resource_types", len(deps.ResourceTypes.All())).
		Int("hooks", len(hooks)).
		Msg("connector initialized")

	return s, nil
}

// NewDeps 按 finder 配置创建资源类型、ACL、缓存与缩略图仓库.
func NewDeps(cfg *configs.AppConfig, mgr *storage.Manager) (*finder.Deps, error) {
	fc := cfg.Finder

	rts, err := finder.NewResourceTypes(fc.ResourceTypes, mgr.Backends)
	if err != nil {
		return nil, fmt.Errorf("resource types: %w", err)
	}

	acl, err := finder.NewACL(fc.ACL)
	if err != nil {
		return nil, fmt.Errorf("acl: %w", err)
	}

	deps := &finder.Deps{
		Config:        &fc,
		ResourceTypes: rts,
		ACL:           acl,
		Translator:    finder.NewTranslator(fc.DefaultLanguage),
		Names:         finder.NewNameGenerator(),
		UploadMaxSize: cfg.Server.MaxUploadBytes(),
	}

	if mgr.KV != nil {
		deps.Cache = finder.NewCacheManager(cache.NewCache(mgr.KV), fc.Cache.TTL)
	}

	if fc.Thumbnails.Backend != "" {
		if b, ok := mgr.Backends.Get(fc.Thumbnails.Backend); ok {
			deps.Thumbnails = finder.NewThumbnailRepository(b)
		}
	}

	return deps, nil
}

// Execute 执行一次连接器请求.
func (s *ConnectorService) Execute(ctx context.Context, req *finder.Request) *finder.Response {
	return s.connector.Execute(ctx, req)
}

// Deps 返回当前生效的连接器依赖.
func (s *ConnectorService) Deps() *finder.Deps {
	return s.connector.Deps()
}

// Reload 按新的 finder 配置重建依赖并替换，失败时保留原依赖.
// 后端在启动时创建，新配置只能引用已有的后端.
func (s *ConnectorService) Reload(cfg *configs.AppConfig) error {
	deps, err := NewDeps(cfg, s.mgr)
	if err != nil {
		return fmt.Errorf("reload connector: %w", err)
	}

	s.connector.SetDeps(deps)

	logger := nlog.Component("connector")
	logger.Info().
		Int("resource_types", len(deps.ResourceTypes.All())).
		Bool("overwrite_on_upload", deps.Config.OverwriteOnUpload).
		Msg("connector config reloaded")

	return nil
}

// Journal 返回上传日志服务，DB 未启用时为 nil.
func (s *ConnectorService) Journal() *JournalService {
	return s.journal
}

// Package app 提供应用程序的初始化和配置功能.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/filedock/pkg/api"
	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/jobs"
	"github.com/yeisme/filedock/pkg/internal/service"
	"github.com/yeisme/filedock/pkg/internal/storage"
	"github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/metrics"
	"github.com/yeisme/filedock/pkg/middleware"
	"github.com/yeisme/filedock/pkg/scheduler"
	"github.com/yeisme/filedock/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// App 持有 HTTP 引擎与其依赖的存储、调度器.
type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	storage   *storage.Manager
	connector *service.ConnectorService
	scheduler *scheduler.Scheduler
}

// NewApp 加载配置并初始化追踪、监控、存储、连接器与路由.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, config, metrics.GetRegistry())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	connector, err := service.NewConnectorService(ctx, config, manager)
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init connector: %w", err)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, connector.Journal(), config.DB.JournalRetention); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	configs.OnReload(func(cfg *configs.AppConfig) {
		if err := connector.Reload(cfg); err != nil {
			logger := log.Component("app")
			logger.Warn().Err(err).Msg("finder config not reloaded")
		}
	})

	a := &App{
		config:    config,
		storage:   manager,
		connector: connector,
		scheduler: sched,
	}
	a.Engine = a.newEngine()

	return a, nil
}

func (a *App) newEngine() *gin.Engine {
	cfg := a.config

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Server.MaxUploadBytes()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server, cfg.Auth),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{cfg.Metrics.Path, "/debug/pprof"})),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RoleMiddleware(cfg.Auth),
		middleware.AuthMiddleware(cfg.Auth),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.StorageMiddleware(a.storage),
		middleware.SchedulerMiddleware(a.scheduler),
		middleware.ConnectorMiddleware(a.connector),
	)

	_ = metrics.StartMetricsServer(cfg.Metrics, engine, cfg.Server.Debug)

	return api.Register(engine, cfg.Server)
}

// Run 启动调度器与 HTTP 服务，ctx 取消后优雅关闭.
func (a *App) Run(ctx context.Context) error {
	logger := log.Component("app")

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	a.scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("connector", a.config.Server.ConnectorPath).Msg("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	runErr = errors.Join(runErr, srv.Shutdown(shutdownCtx))

	return errors.Join(runErr, a.Close(shutdownCtx))
}

// Close 关闭调度器、追踪导出与存储连接.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.scheduler.Shutdown(),
		tracing.ShutdownTracer(ctx),
		a.storage.Close(),
	)
}

// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP 请求与上传结果指标.
//
// Example:
//
//	import "github.com/yeisme/filedock/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("POST", "/api/v1/connector", "200").Inc()
//	metrics.ObserveUpload("Images", metrics.ResultStored, 2048)
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filedock/pkg/configs"
)

// 上传结果标签取值.
const (
	ResultStored   = "stored"
	ResultRejected = "rejected"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// UploadsTotal 按资源类型与结果统计上传次数.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedock_uploads_total",
			Help: "Total number of file uploads by resource type and result",
		},
		[]string{"resource_type", "result"},
	)

	// UploadBytes 成功写入的文件大小.
	UploadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedock_upload_bytes",
			Help:    "Size of stored uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"resource_type"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

	// 注册标准收集器
	if config.RuntimeMetrics {
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return err
		}

		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return err
		}
	}

	for _, c := range []prometheus.Collector{RequestCounter, RequestDuration, ActiveConnections, UploadsTotal, UploadBytes} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// StartMetricsServer 在 engine 上挂载 metrics 端点，调试模式下额外挂载 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine, debug bool) error {
	if !config.Enabled {
		return nil
	}

	engine.GET(config.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if debug {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// ObserveUpload 记录一次上传结果，bytes<=0 时只计数.
func ObserveUpload(resourceType, result string, bytes int64) {
	UploadsTotal.WithLabelValues(resourceType, result).Inc()

	if bytes > 0 {
		UploadBytes.WithLabelValues(resourceType).Observe(float64(bytes))
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Package middleware 提供 gin 中间件：日志、追踪、监控、限流、熔断、角色识别与依赖注入.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/metrics"
)

// abortWithError 以连接器错误格式终止请求，前端只识别 error.number.
func abortWithError(c *gin.Context, status int, number finder.ErrorNumber, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"number": number, "message": msg}})
}

// PrometheusMiddleware 创建Gin的Prometheus中间件.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		// 执行下一个中间件/处理器
		c.Next()

		// 使用路由模板作为 endpoint，避免路径参数导致标签膨胀
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		method := c.Request.Method
		metrics.RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

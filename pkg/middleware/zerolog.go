package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxPkg "github.com/yeisme/filedock/pkg/context"
	"github.com/yeisme/filedock/pkg/log"
)

// RequestIDHeader 请求 ID 的请求头与响应头.
const RequestIDHeader = "X-Request-ID"

// GinLoggerMiddleware 使用zerolog记录Gin请求日志的中间件，并为每个请求分配请求 ID.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		method := c.Request.Method
		clientIP := c.ClientIP()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Header(RequestIDHeader, reqID)
		c.Request = c.Request.WithContext(ctxPkg.WithRequestID(c.Request.Context(), reqID))

		// 执行下一个中间件/处理器
		c.Next()

		// 如果有查询参数，添加到路径中
		if raw != "" {
			path = path + "?" + raw
		}

		// 使用zerolog记录日志，trace_id 与 request_id 来自上下文
		logger := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())
		event := logger.Info().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("method", method).
			Str("path", path).
			Str("client_ip", clientIP)

		if role := GetRole(c); role != "" {
			event = event.Str("role", role)
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}

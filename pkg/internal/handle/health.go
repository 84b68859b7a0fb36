package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filedock/pkg/context"
)

const (
	timeout        = 2 * time.Second
	healthCheckKey = "filedock:health:check"
)

func unhealthy(c *gin.Context, component, msg string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": msg})
}

func healthy(c *gin.Context, component string, extra gin.H) {
	body := gin.H{"component": component, "status": "ok"}
	for k, v := range extra {
		body[k] = v
	}

	c.JSON(http.StatusOK, body)
}

// HealthDB 上传日志数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	healthy(c, "db", nil)
}

// HealthS3 S3/对象存储健康检查.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/s3 [get]
func HealthS3(c *gin.Context) {
	s3c := ctxPkg.GetS3Client(c.Request.Context())
	if s3c == nil || s3c.Client == nil {
		unhealthy(c, "s3", "s3 client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := s3c.HealthCheck(ctx); err != nil {
		unhealthy(c, "s3", err.Error())
		return
	}

	healthy(c, "s3", nil)
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	if ctxPkg.GetMQClient(c.Request.Context()) == nil { // publisher 与 subscriber 在 New 中创建，判空即可
		unhealthy(c, "mq", "mq client not initialized")
		return
	}

	healthy(c, "mq", nil)
}

// HealthKV 写入并读回一个短期探测键.
//
//	@Summary	KV 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil || kvc.KVStore == nil {
		unhealthy(c, "kv", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := kvc.Set(ctx, healthCheckKey, []byte("ok"), 10*time.Second); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	if _, err := kvc.Get(ctx, healthCheckKey); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	healthy(c, "kv", nil)
}

// HealthBackends 检查每个文件后端的根目录是否可列出.
//
//	@Summary	文件后端健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/backends [get]
func HealthBackends(c *gin.Context) {
	reg := ctxPkg.GetBackends(c.Request.Context())
	if reg == nil {
		unhealthy(c, "backends", "backends not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	status := gin.H{}
	failed := false

	for _, name := range reg.Names() {
		b, _ := reg.Get(name)
		if _, err := b.List(ctx, ""); err != nil {
			status[name] = err.Error()
			failed = true

			continue
		}

		status[name] = "ok"
	}

	if failed {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "backends", "status": "unhealthy", "backends": status})
		return
	}

	healthy(c, "backends", gin.H{"backends": status})
}

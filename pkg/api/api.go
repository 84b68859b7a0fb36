// Package api 把 HTTP 接口挂载到 gin 引擎：连接器入口与 /api/v1 下的运维接口.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/router"
)

// V1Prefix 运维接口前缀.
const V1Prefix = "/api/v1"

// Register 注册全部路由并返回 engine.
func Register(e *gin.Engine, server configs.ServerConfig) *gin.Engine {
	router.RegisterConnectorRoute(e, server.ConnectorPath)

	v1 := e.Group(V1Prefix)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterStatsRoutes(v1)
	router.RegisterSchedulerRoutes(v1)

	router.RegisterSwaggerRoute(e, server)

	return e
}

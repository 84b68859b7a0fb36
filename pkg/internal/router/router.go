// Package router 管理路由配置，把 handle 包中的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/handle"
)

// RegisterConnectorRoute 注册连接器入口，GET 用于读取类命令，POST 用于上传.
func RegisterConnectorRoute(r gin.IRouter, path string) {
	r.GET(path, handle.Connector)
	r.POST(path, handle.Connector)
}

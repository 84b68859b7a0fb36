package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/configs"
)

// CORSMiddleware CORS中间件，允许浏览器端文件管理器携带角色头跨域调用连接器.
func CORSMiddleware(server configs.ServerConfig, auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowFiles = true
	config.AddAllowHeaders(auth.RoleHeader, RequestIDHeader)
	config.AddExposeHeaders(RequestIDHeader)

	if server.Debug {
		config.AllowAllOrigins = true
		config.AllowOrigins = nil
	}

	return cors.New(config)
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filedock/pkg/context"
	"github.com/yeisme/filedock/pkg/configs"
)

const roleContextKey = "role"

// RoleMiddleware 从 conf.RoleHeader 读取角色并注入到 gin.Context 和 request.Context.
// 请求头缺失时使用 conf.DefaultRole，角色名区分大小写，与 finder.acl 规则一致.
func RoleMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.TrimSpace(c.GetHeader(conf.RoleHeader))
		if role == "" {
			role = conf.DefaultRole
		}

		c.Set(roleContextKey, role)
		c.Request = c.Request.WithContext(ctxPkg.WithRole(c.Request.Context(), role))
		c.Next()
	}
}

// GetRole 从 gin.Context 获取当前请求角色.
func GetRole(c *gin.Context) string {
	if v, ok := c.Get(roleContextKey); ok {
		if r, ok2 := v.(string); ok2 {
			return r
		}
	}

	// 回退到 request context
	return ctxPkg.GetRole(c.Request.Context())
}

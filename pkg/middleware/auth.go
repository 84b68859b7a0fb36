package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/configs"
	"github.com/yeisme/filedock/pkg/internal/finder"
)

// AuthMiddleware 要求请求携带角色.
//   - 关闭时所有请求直接放行，角色由 RoleMiddleware 回退到默认角色
//   - 开启且没有配置默认角色时，缺少 conf.RoleHeader 的请求返回 UNAUTHORIZED
//   - 支持通过配置跳过某些路径（如 /metrics, /health）.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || conf.DefaultRole != "" || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		if strings.TrimSpace(c.GetHeader(conf.RoleHeader)) == "" {
			abortWithError(c, http.StatusUnauthorized, finder.ErrUnauthorized, "unauthorized")
			return
		}

		c.Next()
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

package configs

import "github.com/spf13/viper"

// AuthConfig 控制请求角色的识别，角色用于匹配 finder.acl 规则.
type AuthConfig struct {
	Enabled     bool     `mapstructure:"enabled"`                      // 开启且 default_role 为空时，缺少角色头的请求返回 UNAUTHORIZED
	RoleHeader  string   `mapstructure:"role_header"  rule:"required"` // 上游网关注入角色的请求头
	DefaultRole string   `mapstructure:"default_role"`                 // 请求头缺失时使用的角色
	SkipPaths   []string `mapstructure:"skip_paths"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.role_header", "X-Role")
	v.SetDefault("auth.default_role", "*")
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/api/v1/health",
		"/swagger",
	})
}

package configs

import "github.com/spf13/viper"

const (
	// 默认速率限制配置.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40
	DefaultRateLimitKey     = "ip"
	// 上传命令默认使用更小的桶.
	DefaultUploadRPS   = 2.0
	DefaultUploadBurst = 10
)

// RateLimitConfig 速率限制配置.
// 连接器的上传命令（FileUpload、QuickUpload）按同一维度使用独立的桶，
// ExemptCommands 中的命令不限流.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`   // 每秒允许的请求数
	Burst   int     `mapstructure:"burst"` // 突发容量
	// Key 选择限流维度：global、ip、role（按 ACL 角色）或 header:Header-Name
	Key            string   `mapstructure:"key"             rule:"omitempty,ratelimit_key"`
	UploadRPS      float64  `mapstructure:"upload_rps"      rule:"min=0"` // 0 表示与其他命令共用 RPS
	UploadBurst    int      `mapstructure:"upload_burst"    rule:"min=0"`
	ExemptCommands []string `mapstructure:"exempt_commands"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.upload_rps", DefaultUploadRPS)
	v.SetDefault("rate_limit.upload_burst", DefaultUploadBurst)
	v.SetDefault("rate_limit.exempt_commands", []string{"Init"})
}

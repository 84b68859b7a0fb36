package configs

import "github.com/spf13/viper"

// EventsConfig 控制领域事件向消息队列发布的开关.
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 文件相关事件开关.
type FileEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"`
	Rejected bool `mapstructure:"rejected"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.file.uploaded", true)
	// 拒绝事件量可能很大，默认关闭
	v.SetDefault("events.file.rejected", false)
}

package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS   MQType = "nats"
	MQTypeRedis  MQType = "redis"
	MQTypeMemory MQType = "memory" // 进程内 gochannel，单实例部署与测试使用

	DefaultMQURL         = "nats://localhost:4222"
	DefaultMaxReconnects = 5 // 最大重连次数
	DefaultReconnectWait = 5 // 重连等待时间（秒）
)

// MQConfig 消息队列配置，上传通知发布到此队列.
type MQConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Type    MQType        `mapstructure:"type"    rule:"oneof=nats redis memory"`
	NATS    MQNATSConfig  `mapstructure:"nats"`
	Redis   MQRedisConfig `mapstructure:"redis"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	URL                    string `mapstructure:"url"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	ClientID               string `mapstructure:"client_id"`
	MaxReconnects          int    `mapstructure:"max_reconnects"           rule:"min=0,max=100"`
	ReconnectWait          int    `mapstructure:"reconnect_wait"           rule:"min=0,max=300"`
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
}

// MQRedisConfig Redis MQ 配置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.enabled", false)
	v.SetDefault("mq.type", MQTypeNATS)

	v.SetDefault("mq.nats.url", DefaultMQURL)
	v.SetDefault("mq.nats.client_id", "filedock")
	v.SetDefault("mq.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "filedock")

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
}

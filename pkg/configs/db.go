package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

type (
	// DBType 上传日志数据库类型.
	DBType string
)

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgres"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

const (
	DefaultDatabaseHost     = "localhost"
	DefaultDatabasePort     = 5432
	DefaultDatabaseName     = "filedock"
	DefaultDatabaseSSLMode  = "disable"
	DefaultMaxIdleConns     = 5
	DefaultJournalRetention = "720h" // 上传日志保留时长
)

// DBConfig 数据库配置，上传日志（journal）写入此库.
type DBConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Type             DBType `mapstructure:"type"              rule:"oneof=postgresql postgres mysql mariadb sqlite"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"              rule:"min=0,max=65535"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"          rule:"required"`
	SSLMode          string `mapstructure:"sslmode"`
	MaxOpenConns     int    `mapstructure:"max_open_conns"    rule:"min=0"`
	MaxIdleConns     int    `mapstructure:"max_idle_conns"    rule:"min=0"`
	JournalRetention string `mapstructure:"journal_retention"`
}

// GetDSN 根据数据库类型返回连接字符串.
func (c *DBConfig) GetDSN() string {
	switch c.Type {
	case PostgreSQL, Postgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	case MySQL, MariaDB:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case SQLite:
		if c.Database == ":memory:" {
			return "file::memory:?cache=shared"
		}

		return fmt.Sprintf("file:%s.db", c.Database)
	default:
		return ""
	}
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.type", SQLite)
	v.SetDefault("database.host", DefaultDatabaseHost)
	v.SetDefault("database.port", DefaultDatabasePort)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", DefaultDatabaseName)
	v.SetDefault("database.sslmode", DefaultDatabaseSSLMode)
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", DefaultMaxIdleConns)
	v.SetDefault("database.journal_retention", DefaultJournalRetention)
}

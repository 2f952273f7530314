package connector

import (
	"time"

	"github.com/simstream/go-simstream/config"
)

// Config 连接配置
type Config struct {
	// DialTimeout 拨号超时
	DialTimeout time.Duration

	// MaxMessageSize 单帧负载上限，0 表示不限制
	MaxMessageSize uint32
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	def := config.DefaultClientConfig()
	return Config{
		DialTimeout:    def.DialTimeout.Duration(),
		MaxMessageSize: def.MaxMessageSize,
	}
}

// ConfigFromUnified 从统一配置创建连接配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		DialTimeout:    cfg.Client.DialTimeout.Duration(),
		MaxMessageSize: cfg.Client.MaxMessageSize,
	}
}

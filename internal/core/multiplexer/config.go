package multiplexer

import (
	"time"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/internal/core/connector"
)

// Config Multiplexer 配置
type Config struct {
	// Connector 单个连接的配置
	Connector connector.Config

	// ReconnectInterval 重连间隔，0 表示不重连
	ReconnectInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{Connector: connector.DefaultConfig()}
}

// ConfigFromUnified 从统一配置创建 Multiplexer 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Connector:         connector.ConfigFromUnified(cfg),
		ReconnectInterval: cfg.Client.ReconnectInterval.Duration(),
	}
}

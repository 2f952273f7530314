package acceptor

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/simstream/go-simstream/config"
)

// Config Acceptor 配置
type Config struct {
	// ListenAddr 监听地址
	ListenAddr string

	// ExternalAddr 写入 Token 的对外地址，可为空
	ExternalAddr string

	// Timeout 握手读超时与会话空闲超时
	Timeout time.Duration

	// Clock 会话空闲计时器时钟
	Clock clock.Clock
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	def := config.DefaultServerConfig()
	return Config{
		ListenAddr: def.ListenAddr,
		Timeout:    def.Timeout.Duration(),
	}
}

// ConfigFromUnified 从统一配置创建 Acceptor 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		ListenAddr:   cfg.Server.ListenAddr,
		ExternalAddr: cfg.Server.ExternalAddr,
		Timeout:      cfg.Server.Timeout.Duration(),
	}
}

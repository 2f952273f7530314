package config

import (
	"errors"
	"time"
)

// DefaultMaxMessageSize 单帧负载上限默认值（512 MiB）
const DefaultMaxMessageSize = 512 << 20

// ClientConfig 客户端配置
type ClientConfig struct {
	// DialTimeout 拨号超时
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// MaxMessageSize 单帧负载上限，超出时视为协议错误并断开
	MaxMessageSize uint32 `json:"max_message_size" yaml:"max_message_size"`

	// ReconnectInterval 传输错误后的重连间隔，0 表示不重连
	ReconnectInterval Duration `json:"reconnect_interval" yaml:"reconnect_interval"`
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:    Duration(5 * time.Second),
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Validate 验证客户端配置
func (c ClientConfig) Validate() error {
	if c.DialTimeout <= 0 {
		return errors.New("dial_timeout must be positive")
	}
	if c.MaxMessageSize == 0 {
		return errors.New("max_message_size must be positive")
	}
	if c.ReconnectInterval < 0 {
		return errors.New("reconnect_interval must not be negative")
	}
	return nil
}

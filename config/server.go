package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// DefaultTimeout 会话空闲超时默认值
const DefaultTimeout = 10 * time.Second

// ServerConfig 服务端配置
type ServerConfig struct {
	// ListenAddr 监听地址，端口为 0 时随机分配
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// ExternalAddr 写入 Token 的对外地址（可选）
	//
	// 为空时使用监听地址，未指定地址（0.0.0.0 / ::）替换为回环地址。
	ExternalAddr string `json:"external_addr,omitempty" yaml:"external_addr,omitempty"`

	// Timeout 会话空闲超时，同时用作握手读超时
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// SynchronousMode 同步写模式：上一帧未写完时阻塞而不是丢弃
	SynchronousMode bool `json:"synchronous_mode" yaml:"synchronous_mode"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: "0.0.0.0:2001",
		Timeout:    Duration(DefaultTimeout),
	}
}

// Validate 验证服务端配置
func (c ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if _, err := netip.ParseAddrPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr %q: %w", c.ListenAddr, err)
	}
	if c.ExternalAddr != "" {
		if _, err := netip.ParseAddrPort(c.ExternalAddr); err != nil {
			return fmt.Errorf("invalid external_addr %q: %w", c.ExternalAddr, err)
		}
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义：
//   - server.go    - 服务端（监听地址、空闲超时、同步写模式）
//   - client.go    - 客户端（拨号超时、最大帧、重连间隔）
//   - scheduler.go - 共享调度器（工作协程数、队列长度）
//   - metrics.go   - Prometheus 指标
//   - log.go       - 日志
//
// 支持从 YAML/JSON 文件加载：
//
//	cfg, err := config.LoadFile("simstream.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg.Server.SynchronousMode = true
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config simstream 的完整配置
type Config struct {
	// Server 服务端配置
	Server ServerConfig `json:"server" yaml:"server"`

	// Client 客户端配置
	Client ClientConfig `json:"client" yaml:"client"`

	// Scheduler 共享调度器配置
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Client:    DefaultClientConfig(),
		Scheduler: DefaultSchedulerConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证所有子配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Clone 返回深拷贝
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// FromJSON 从 JSON 解析，未出现的字段保留默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析 JSON 配置失败: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromYAML 从 YAML 解析，未出现的字段保留默认值
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 配置失败: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFile 按扩展名加载配置文件（.yaml/.yml/.json）
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s", path)
	}
}

// ToYAML 序列化为 YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

package config

import (
	"errors"
	"regexp"
)

var metricNamespaceRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace" yaml:"namespace"`

	// ListenAddr /metrics HTTP 端点地址，为空时不启动（仅命令行使用）
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "simstream",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && !metricNamespaceRE.MatchString(c.Namespace) {
		return errors.New("namespace must be a valid prometheus identifier")
	}
	return nil
}

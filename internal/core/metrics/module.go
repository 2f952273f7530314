package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "simstream",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回 metrics 的 Fx 模块
//
// 未注入 prometheus.Registerer 时使用 prometheus.DefaultRegisterer。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(NewReporterFromParams),
	)
}

// NewReporterFromParams 从参数创建 Reporter
func NewReporterFromParams(p Params) (interfaces.Reporter, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return Noop{}, nil
	}

	reg := p.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	prom, err := NewPrometheus(cfg.Namespace, reg)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			prom.Unregister(reg)
			return nil
		},
	})
	return prom, nil
}

package multiplexer

import (
	"context"

	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// Params Multiplexer 依赖参数
type Params struct {
	fx.In

	Scheduler  *scheduler.Scheduler
	Reporter   interfaces.Reporter `optional:"true"`
	UnifiedCfg *config.Config      `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("multiplexer",
		fx.Provide(ProvideMultiplexer),
	)
}

// ProvideMultiplexer 提供 Multiplexer 实例
//
// 调度器的启停由 scheduler 模块负责，OnStop 只关闭订阅。
func ProvideMultiplexer(p Params) *Multiplexer {
	m := New(ConfigFromUnified(p.UnifiedCfg), p.Scheduler, p.Reporter)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
	return m
}

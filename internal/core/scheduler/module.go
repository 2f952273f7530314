package scheduler

import (
	"context"

	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params 调度器依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回 Fx 模块
//
// OnStart 启动 Workers 个后台 worker，OnStop 停止调度器。
func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(ProvideScheduler),
	)
}

// ProvideScheduler 提供 Scheduler 实例
func ProvideScheduler(p Params) *Scheduler {
	cfg := ConfigFromUnified(p.UnifiedCfg).withDefaults()
	s := New(cfg)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.AsyncRun(cfg.Workers)
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
	return s
}

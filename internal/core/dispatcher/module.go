package dispatcher

import (
	"context"

	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Dispatcher 依赖参数
type Params struct {
	fx.In

	Scheduler  *scheduler.Scheduler
	Reporter   interfaces.Reporter `optional:"true"`
	UnifiedCfg *config.Config      `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("dispatcher",
		fx.Provide(ProvideDispatcher),
	)
}

// ProvideDispatcher 提供 Dispatcher 实例
//
// OnStop 时关闭全部流与会话，先于调度器停止。
func ProvideDispatcher(p Params) *Dispatcher {
	d := New(p.Scheduler, p.Reporter)
	if p.UnifiedCfg != nil {
		d.SetSynchronousMode(p.UnifiedCfg.Server.SynchronousMode)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return d.Close()
		},
	})
	return d
}

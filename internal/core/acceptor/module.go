package acceptor

import (
	"context"
	"errors"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/internal/core/dispatcher"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Acceptor 依赖参数
type Params struct {
	fx.In

	Dispatcher *dispatcher.Dispatcher
	Reporter   interfaces.Reporter `optional:"true"`
	UnifiedCfg *config.Config      `optional:"true"`
	Clock      clock.Clock         `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回 Fx 模块
//
// OnStart 绑定监听地址并在后台运行 accept 循环，OnStop 关闭。
func Module() fx.Option {
	return fx.Module("acceptor",
		fx.Provide(ProvideAcceptor),
	)
}

// ProvideAcceptor 提供 Acceptor 实例
func ProvideAcceptor(p Params) *Acceptor {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	cfg.Clock = p.Clock
	a := New(cfg, p.Dispatcher, p.Reporter)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := a.Listen(""); err != nil {
				return err
			}
			go func() {
				if err := a.Serve(context.Background()); err != nil && !errors.Is(err, ErrAcceptorClosed) {
					logger.Warn("accept 循环退出", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			return a.Close()
		},
	})
	return a
}

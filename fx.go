package simstream

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/simstream/go-simstream/internal/core/acceptor"
	"github.com/simstream/go-simstream/internal/core/dispatcher"
	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/multiplexer"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	log "github.com/simstream/go-simstream/internal/util/logger"
)

var logger = log.Logger("simstream")

// commonModules 服务端与客户端共用的模块
//
// 加载顺序（按依赖）：配置 → 指标 → 调度器
func commonModules(o *options) ([]fx.Option, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		metrics.Module(),
		scheduler.Module(),
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	return modules, nil
}

// buildServerApp 构建服务端 Fx 应用
//
// OnStart 顺序：调度器启动 worker → Acceptor 监听并运行 accept 循环
// OnStop 逆序：Acceptor 关闭 → Dispatcher 关闭全部流 → 调度器停止 → 指标注销
func buildServerApp(o *options, srv *Server) (*fx.App, error) {
	modules, err := commonModules(o)
	if err != nil {
		return nil, err
	}

	if o.clock != nil {
		c := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return c }))
	}

	modules = append(modules,
		dispatcher.Module(),
		acceptor.Module(),
		fx.Populate(&srv.dispatcher, &srv.acceptor),
	)
	modules = append(modules, o.userFx...)
	modules = append(modules, fxLogger())

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build server app: %w", err)
	}
	return app, nil
}

// buildClientApp 构建客户端 Fx 应用
func buildClientApp(o *options, cli *Client) (*fx.App, error) {
	modules, err := commonModules(o)
	if err != nil {
		return nil, err
	}

	modules = append(modules,
		multiplexer.Module(),
		fx.Populate(&cli.mux),
	)
	modules = append(modules, o.userFx...)
	modules = append(modules, fxLogger())

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build client app: %w", err)
	}
	return app, nil
}

// fxLogger 静默 Fx 自身的事件日志
func fxLogger() fx.Option {
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	})
}

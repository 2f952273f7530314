package simstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/simstream/go-simstream/config"
)

// Option 配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// registerer 指标注册表，nil 使用 prometheus.DefaultRegisterer
	registerer prometheus.Registerer

	// clock 会话空闲计时器时钟
	clock clock.Clock

	// userFx 用户自定义 Fx 选项
	userFx []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

func (o *options) apply(opts []Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置，之后的选项在其基础上修改
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 YAML/JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("加载配置文件失败: %w", err)
		}
		o.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              服务端
// ════════════════════════════════════════════════════════════════════════════

// WithListenAddr 设置监听地址（ip:port，端口 0 随机分配）
func WithListenAddr(addr string) Option {
	return func(o *options) error {
		o.config.Server.ListenAddr = addr
		return nil
	}
}

// WithExternalAddr 设置写入 Token 的对外地址
func WithExternalAddr(addr string) Option {
	return func(o *options) error {
		o.config.Server.ExternalAddr = addr
		return nil
	}
}

// WithTimeout 设置订阅会话空闲超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		o.config.Server.Timeout = config.Duration(d)
		return nil
	}
}

// WithSynchronousMode 设置初始写模式
func WithSynchronousMode(enabled bool) Option {
	return func(o *options) error {
		o.config.Server.SynchronousMode = enabled
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              客户端
// ════════════════════════════════════════════════════════════════════════════

// WithDialTimeout 设置拨号超时
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.config.Client.DialTimeout = config.Duration(d)
		return nil
	}
}

// WithMaxMessageSize 设置单帧负载上限
func WithMaxMessageSize(n uint32) Option {
	return func(o *options) error {
		o.config.Client.MaxMessageSize = n
		return nil
	}
}

// WithReconnectInterval 启用传输错误后的自动重连，0 关闭
func WithReconnectInterval(d time.Duration) Option {
	return func(o *options) error {
		o.config.Client.ReconnectInterval = config.Duration(d)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              共享
// ════════════════════════════════════════════════════════════════════════════

// WithWorkers 设置调度器 worker 数
func WithWorkers(n int) Option {
	return func(o *options) error {
		o.config.Scheduler.Workers = n
		return nil
	}
}

// WithQueueSize 设置调度器队列容量
func WithQueueSize(n int) Option {
	return func(o *options) error {
		o.config.Scheduler.QueueSize = n
		return nil
	}
}

// WithMetrics 启用或关闭 Prometheus 指标
func WithMetrics(enabled bool) Option {
	return func(o *options) error {
		o.config.Metrics.Enabled = enabled
		return nil
	}
}

// WithRegisterer 设置指标注册表
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithClock 设置会话空闲计时器时钟，主要用于测试
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFx = append(o.userFx, opts...)
		return nil
	}
}

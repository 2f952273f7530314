package scheduler

import "github.com/simstream/go-simstream/config"

// Config 调度器配置
type Config struct {
	// Workers AsyncRun 启动的 worker 数
	Workers int

	// QueueSize 任务队列容量
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	def := config.DefaultSchedulerConfig()
	return Config{
		Workers:   def.Workers,
		QueueSize: def.QueueSize,
	}
}

// ConfigFromUnified 从统一配置创建调度器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Workers:   cfg.Scheduler.Workers,
		QueueSize: cfg.Scheduler.QueueSize,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	return c
}

package config

import "errors"

// SchedulerConfig 共享调度器配置
type SchedulerConfig struct {
	// Workers 工作协程数量
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize 任务队列容量
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// DefaultSchedulerConfig 返回默认调度器配置
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:   2,
		QueueSize: 4096,
	}
}

// Validate 验证调度器配置
func (c SchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	return nil
}

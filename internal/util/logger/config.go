package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量
const (
	// EnvLevel 日志级别，格式: 子系统=级别,...,默认级别
	EnvLevel = "SIMSTREAM_LOG_LEVEL"
	// EnvFormat 日志格式 (text 或 json)
	EnvFormat = "SIMSTREAM_LOG_FORMAT"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat
}

// LevelForSubsystem 获取指定子系统的日志级别
//
// 子系统名按 "/" 分段从长到短匹配，"core/session" 会依次尝试
// "core/session"、"session"（最后一段）和 "core"。
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	if i := strings.LastIndex(subsystem, "/"); i >= 0 {
		if level, ok := c.SubsystemLevels[subsystem[i+1:]]; ok {
			return level
		}
		if level, ok := c.SubsystemLevels[subsystem[:strings.Index(subsystem, "/")]]; ok {
			return level
		}
	}
	return c.DefaultLevel
}

var (
	configCache *Config
	configMu    sync.Mutex
)

// ConfigFromEnv 从环境变量解析配置（结果会被缓存）
func ConfigFromEnv() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	if configCache == nil {
		configCache = ParseConfig(os.Getenv(EnvLevel), os.Getenv(EnvFormat))
	}
	return configCache
}

// ParseConfig 解析级别与格式字符串
//
// 示例: ParseConfig("session=debug,acceptor=warn,info", "json")
func ParseConfig(levelStr, formatStr string) *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if subsystem, levelName, ok := strings.Cut(part, "="); ok {
			if level, ok := ParseLevel(levelName); ok {
				cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
			}
			continue
		}
		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}

	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		cfg.Format = FormatJSON
	}
	return cfg
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Configure 用显式配置替换环境变量配置
//
// 已创建的子系统 Logger 会立即切换到新级别。
func Configure(cfg *Config) {
	if cfg == nil {
		return
	}
	configMu.Lock()
	configCache = cfg
	configMu.Unlock()

	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// ResetConfig 重置配置缓存（仅用于测试）
func ResetConfig() {
	configMu.Lock()
	configCache = nil
	configMu.Unlock()
}

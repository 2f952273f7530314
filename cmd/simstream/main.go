// Package main 提供 simstream 命令行入口
//
//	simstream serve     [--config f] [--listen addr] [--streams n] [--rate hz] [--size bytes] [--sync]
//	simstream subscribe [--config f] <token>...
//	simstream token     <token>...
//	simstream version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	simstream "github.com/simstream/go-simstream"
	"github.com/simstream/go-simstream/config"
	log "github.com/simstream/go-simstream/internal/util/logger"
)

var logger = log.Logger("simstream/cmd")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("缺少子命令")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "serve":
		return runServe(ctx, args[1:])
	case "subscribe":
		return runSubscribe(ctx, args[1:])
	case "token":
		return runToken(args[1:])
	case "version":
		fmt.Println(simstream.VersionInfo())
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("未知子命令: %s", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `用法: simstream <command> [flags]

命令:
  serve       启动服务端并以固定频率向合成流写入数据
  subscribe   订阅一个或多个 Token 并打印接收速率
  token       解码 Token
  version     显示版本信息`)
}

// ═══════════════════════════════════════════════════════════════════════════
// 配置
// ═══════════════════════════════════════════════════════════════════════════

// commonFlags 各子命令共用的参数
type commonFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configFile, "config", "c", "", "配置文件路径（.yaml/.yml/.json）")
	fs.StringVar(&c.logLevel, "log-level", "", "日志级别 (debug/info/warn/error)")
	fs.StringVar(&c.logFormat, "log-format", "", "日志格式 (text/json)")
}

// load 加载配置并应用日志设置
//
// 优先级：命令行参数 > 配置文件 > 默认值。
// 配置文件与命令行都未指定日志参数时保留环境变量配置。
func (c *commonFlags) load() (*config.Config, error) {
	cfg := config.NewConfig()
	if c.configFile != "" {
		loaded, err := config.LoadFile(c.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if c.configFile != "" || c.logLevel != "" || c.logFormat != "" {
		log.Configure(log.ParseConfig(cfg.Log.Level, cfg.Log.Format))
	}
	return cfg, nil
}

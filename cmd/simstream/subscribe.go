package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	simstream "github.com/simstream/go-simstream"
)

// counter 单个订阅的接收统计
type counter struct {
	token  simstream.Token
	frames atomic.Uint64
	bytes  atomic.Uint64
}

// runSubscribe 订阅给定 Token，每个统计周期打印一次接收速率
func runSubscribe(ctx context.Context, args []string) error {
	var (
		common    commonFlags
		interval  time.Duration
		reconnect time.Duration
	)

	fs := pflag.NewFlagSet("subscribe", pflag.ContinueOnError)
	common.add(fs)
	fs.DurationVarP(&interval, "interval", "i", time.Second, "统计打印周期")
	fs.DurationVar(&reconnect, "reconnect", 0, "断线重连间隔（0 关闭）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("至少需要一个 Token")
	}
	if interval <= 0 {
		interval = time.Second
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	opts := []simstream.Option{simstream.WithConfig(cfg), simstream.WithMetrics(false)}
	if fs.Changed("reconnect") {
		opts = append(opts, simstream.WithReconnectInterval(reconnect))
	}

	cli, err := simstream.NewClient(opts...)
	if err != nil {
		return err
	}
	if err := cli.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	counters := make([]*counter, 0, fs.NArg())
	for _, arg := range fs.Args() {
		token, err := simstream.ParseToken(arg)
		if err != nil {
			return fmt.Errorf("解析 Token %q 失败: %w", arg, err)
		}
		c := &counter{token: token}
		if err := cli.Subscribe(ctx, token, func(buf simstream.Buffer) {
			c.frames.Add(1)
			c.bytes.Add(uint64(buf.Len()))
		}); err != nil {
			return fmt.Errorf("订阅 %s 失败: %w", token.Describe(), err)
		}
		counters = append(counters, c)
		fmt.Printf("已订阅 %s\n", token.Describe())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if len(cli.Subscriptions()) == 0 {
			return errors.New("全部订阅已断开")
		}
		secs := interval.Seconds()
		for _, c := range counters {
			frames := c.frames.Swap(0)
			bytes := c.bytes.Swap(0)
			fmt.Printf("%s  %.1f frames/s  %.1f KiB/s\n",
				c.token.Describe(), float64(frames)/secs, float64(bytes)/secs/1024)
		}
	}
}

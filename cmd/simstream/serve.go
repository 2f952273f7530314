package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	simstream "github.com/simstream/go-simstream"
)

// runServe 启动服务端，为每个合成传感器创建一个流并按固定频率写入
func runServe(ctx context.Context, args []string) error {
	var (
		common      commonFlags
		listen      string
		external    string
		streams     int
		rateHz      float64
		size        int
		sync        bool
		metricsAddr string
	)

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	common.add(fs)
	fs.StringVarP(&listen, "listen", "l", "", "监听地址（覆盖配置文件）")
	fs.StringVar(&external, "external-addr", "", "写入 Token 的对外地址")
	fs.IntVarP(&streams, "streams", "n", 1, "合成流数量")
	fs.Float64VarP(&rateHz, "rate", "r", 30, "每个流的写入频率（Hz）")
	fs.IntVarP(&size, "size", "s", 1024, "每帧负载字节数（至少 8）")
	fs.BoolVar(&sync, "sync", false, "使用同步写模式")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "/metrics HTTP 地址（覆盖配置文件）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if streams <= 0 || rateHz <= 0 {
		return errors.New("--streams 与 --rate 必须为正数")
	}
	if size < 8 {
		size = 8
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.ListenAddr = metricsAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []simstream.Option{simstream.WithConfig(cfg), simstream.WithRegisterer(reg)}
	if listen != "" {
		opts = append(opts, simstream.WithListenAddr(listen))
	}
	if external != "" {
		opts = append(opts, simstream.WithExternalAddr(external))
	}
	if fs.Changed("sync") {
		opts = append(opts, simstream.WithSynchronousMode(sync))
	}

	srv, err := simstream.NewServer(opts...)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = srv.Close() }()

	fmt.Printf("%s\n监听 %s\n", simstream.VersionInfo(), srv.Addr())

	handles := make([]simstream.Stream, 0, streams)
	for i := 0; i < streams; i++ {
		st, err := srv.MakeStream()
		if err != nil {
			return err
		}
		handles = append(handles, st)
		fmt.Printf("stream %d  %s\n", st.ID(), st.Token())
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.Metrics.ListenAddr, reg) })
	}
	interval := time.Duration(float64(time.Second) / rateHz)
	for _, st := range handles {
		st := st
		g.Go(func() error {
			produce(gctx, st, interval, size)
			return nil
		})
	}

	fmt.Println("服务端已启动，按 Ctrl+C 退出")
	err = g.Wait()
	fmt.Println("\n正在关闭服务端...")
	return err
}

// produce 写入带递增序号的合成帧，无订阅者时跳过
func produce(ctx context.Context, st simstream.Stream, interval time.Duration, size int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		seq++
		if !st.AreClientsListening() {
			continue
		}
		frame := make([]byte, size)
		binary.LittleEndian.PutUint64(frame, seq)
		st.Write(simstream.WrapBuffer(frame))
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logger.Info("指标端点已启动", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("指标端点失败: %w", err)
	}
	return nil
}

package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	log "github.com/simstream/go-simstream/internal/util/logger"
)

var logger = log.Logger("core/scheduler")

// Task 调度单元
type Task func()

// Scheduler 共享任务调度器
type Scheduler struct {
	queue chan Task

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	stopped  atomic.Bool
	stopOnce sync.Once
	workers  atomic.Int32
}

// New 创建调度器
func New(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	return &Scheduler{
		queue:  make(chan Task, cfg.QueueSize),
		ctx:    gctx,
		cancel: cancel,
		group:  group,
	}
}

// Post 提交任务
//
// 队列满时阻塞直到有空位或调度器停止。停止后返回 ErrStopped。
func (s *Scheduler) Post(t Task) error {
	if t == nil {
		return nil
	}
	if s.stopped.Load() {
		return ErrStopped
	}
	select {
	case s.queue <- t:
		return nil
	case <-s.ctx.Done():
		return ErrStopped
	}
}

// Run 在当前 goroutine 上运行一个 worker
//
// 阻塞直到 ctx 取消（返回 ctx.Err()）或 Stop 被调用（返回 nil）。
func (s *Scheduler) Run(ctx context.Context) error {
	if s.stopped.Load() {
		return ErrStopped
	}

	s.workers.Add(1)
	defer s.workers.Add(-1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return nil
		case t := <-s.queue:
			s.exec(t)
		}
	}
}

// AsyncRun 在后台启动 n 个 worker
func (s *Scheduler) AsyncRun(n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.group.Go(func() error {
			return s.Run(s.ctx)
		})
	}
	logger.Debug("启动后台 worker", "count", n)
}

// Stop 停止调度器并等待后台 worker 退出
//
// 队列中尚未执行的任务被丢弃。不得在任务内部调用。
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		if err := s.group.Wait(); err != nil && err != context.Canceled {
			logger.Debug("worker 退出", "error", err)
		}
		logger.Debug("调度器已停止", "dropped", len(s.queue))
	})
}

// Done 返回调度器停止时关闭的通道
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

// IsStopped 是否已停止
func (s *Scheduler) IsStopped() bool {
	return s.stopped.Load()
}

// Workers 返回当前运行中的 worker 数量
func (s *Scheduler) Workers() int {
	return int(s.workers.Load())
}

// Pending 返回队列中等待执行的任务数
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// exec 执行任务并捕获 panic
func (s *Scheduler) exec(t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("任务 panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	t()
}

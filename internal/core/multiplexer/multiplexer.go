package multiplexer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/simstream/go-simstream/internal/core/connector"
	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	log "github.com/simstream/go-simstream/internal/util/logger"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

var logger = log.Logger("core/multiplexer")

// subscription 一个 Token 的订阅
type subscription struct {
	token   types.Token
	handler interfaces.BufferHandler

	// ctx 在 Unsubscribe 或 Close 时取消，终止重连
	ctx    context.Context
	cancel context.CancelFunc

	// conn 受 Multiplexer.mu 保护
	conn *connector.Connector
}

// Multiplexer 客户端订阅管理器
type Multiplexer struct {
	cfg      Config
	sched    *scheduler.Scheduler
	reporter interfaces.Reporter
	limiter  *rate.Limiter

	mu     sync.Mutex
	subs   map[types.Token]*subscription
	closed atomic.Bool
	wg     sync.WaitGroup
}

// New 创建 Multiplexer
func New(cfg Config, sched *scheduler.Scheduler, reporter interfaces.Reporter) *Multiplexer {
	m := &Multiplexer{
		cfg:      cfg,
		sched:    sched,
		reporter: metrics.OrNoop(reporter),
		subs:     make(map[types.Token]*subscription),
	}
	if cfg.ReconnectInterval > 0 {
		m.limiter = rate.NewLimiter(rate.Every(cfg.ReconnectInterval), 1)
	}
	return m
}

// ============================================================================
//                              调度
// ============================================================================

// Run 在当前 goroutine 上运行回调调度
func (m *Multiplexer) Run(ctx context.Context) error {
	return m.sched.Run(ctx)
}

// AsyncRun 在后台启动 n 个回调 worker
func (m *Multiplexer) AsyncRun(n int) {
	m.sched.AsyncRun(n)
}

// Stop 关闭全部订阅并停止调度器
//
// 不得在回调内部调用。
func (m *Multiplexer) Stop() error {
	err := m.Close()
	m.sched.Stop()
	return err
}

// ============================================================================
//                              订阅
// ============================================================================

// Subscribe 订阅 token
//
// 拨号并完成握手后返回；回调在调度器上按到达顺序串行执行。
// 同一个仍在订阅中的 Token 重复订阅返回 ErrAlreadySubscribed。
func (m *Multiplexer) Subscribe(ctx context.Context, token types.Token, handler interfaces.BufferHandler) error {
	if !token.IsValid() {
		return types.ErrInvalidToken
	}

	sctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{token: token, handler: handler, ctx: sctx, cancel: cancel}

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		cancel()
		return ErrClosed
	}
	if _, exists := m.subs[token]; exists {
		m.mu.Unlock()
		cancel()
		return ErrAlreadySubscribed
	}
	c := m.newConnector(sub)
	sub.conn = c
	m.subs[token] = sub
	m.mu.Unlock()

	if err := c.Connect(ctx); err != nil {
		m.remove(sub)
		cancel()
		return err
	}

	logger.Debug("订阅", "token", token.Describe(), "trace", c.TraceID())
	return nil
}

// Unsubscribe 取消订阅，返回后不会再开始该 token 的回调
//
// 可以在回调内部调用；未订阅的 token 忽略。
func (m *Multiplexer) Unsubscribe(token types.Token) {
	m.mu.Lock()
	sub, ok := m.subs[token]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.subs, token)
	sub.cancel()
	c := sub.conn
	m.mu.Unlock()

	if c != nil {
		_ = c.Close()
	}
	logger.Debug("取消订阅", "token", token.Describe())
}

// Subscriptions 返回当前订阅的 Token
func (m *Multiplexer) Subscriptions() []types.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := make([]types.Token, 0, len(m.subs))
	for t := range m.subs {
		tokens = append(tokens, t)
	}
	return tokens
}

// IsSubscribed token 是否在订阅中
func (m *Multiplexer) IsSubscribed(token types.Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[token]
	return ok
}

// Close 关闭全部订阅，不停止调度器
func (m *Multiplexer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[types.Token]*subscription)
	m.mu.Unlock()

	var errs error
	for _, sub := range subs {
		sub.cancel()
		m.mu.Lock()
		c := sub.conn
		m.mu.Unlock()
		if c != nil {
			errs = multierr.Append(errs, c.Close())
		}
	}
	m.wg.Wait()

	logger.Debug("Multiplexer 已关闭", "subscriptions", len(subs))
	return errs
}

// ============================================================================
//                              连接生命周期
// ============================================================================

func (m *Multiplexer) newConnector(sub *subscription) *connector.Connector {
	c := connector.New(sub.token, sub.handler, m.sched, m.cfg.Connector, m.reporter)
	c.OnClosed(func(c *connector.Connector, err error) {
		m.connectorClosed(sub, c, err)
	})
	return c
}

// connectorClosed 处理连接关闭：主动关闭忽略，拨号失败由调用方处理
func (m *Multiplexer) connectorClosed(sub *subscription, c *connector.Connector, err error) {
	if err == nil || errors.Is(err, connector.ErrConnect) {
		return
	}

	m.mu.Lock()
	current := m.subs[sub.token] == sub && sub.conn == c
	if !current {
		m.mu.Unlock()
		return
	}
	if m.limiter == nil || m.closed.Load() {
		delete(m.subs, sub.token)
		m.mu.Unlock()
		sub.cancel()
		logger.Info("订阅已断开", "token", sub.token.Describe(), "error", err)
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	logger.Info("订阅已断开，准备重连", "token", sub.token.Describe(), "error", err, "interval", m.cfg.ReconnectInterval)
	go m.reconnect(sub)
}

func (m *Multiplexer) reconnect(sub *subscription) {
	defer m.wg.Done()

	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(m.cfg.ReconnectInterval)
		select {
		case <-sub.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := m.limiter.Wait(sub.ctx); err != nil {
			return
		}

		m.mu.Lock()
		if sub.ctx.Err() != nil {
			m.mu.Unlock()
			return
		}
		c := m.newConnector(sub)
		sub.conn = c
		m.mu.Unlock()

		if err := c.Connect(sub.ctx); err != nil {
			logger.Debug("重连失败", "token", sub.token.Describe(), "attempt", attempt, "error", err)
			continue
		}
		logger.Info("重连成功", "token", sub.token.Describe(), "attempt", attempt, "trace", c.TraceID())
		return
	}
}

// remove 仅在 sub 仍是当前订阅时移除
func (m *Multiplexer) remove(sub *subscription) {
	m.mu.Lock()
	if m.subs[sub.token] == sub {
		delete(m.subs, sub.token)
	}
	m.mu.Unlock()
}

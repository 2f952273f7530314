package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/internal/core/wire"
	log "github.com/simstream/go-simstream/internal/util/logger"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

var logger = log.Logger("core/connector")

// ClosedFunc 连接关闭回调，err 为 nil 表示主动关闭
type ClosedFunc func(c *Connector, err error)

// Connector 单个订阅连接
type Connector struct {
	token    types.Token
	cfg      Config
	handler  interfaces.BufferHandler
	sched    *scheduler.Scheduler
	strand   *scheduler.Strand
	reporter interfaces.Reporter
	trace    string
	onClosed ClosedFunc

	state atomic.Int32

	mu   sync.Mutex
	conn net.Conn

	closeCh   chan struct{}
	closeOnce sync.Once
	closeErr  error
	loopDone  chan struct{}
	started   atomic.Bool
}

// New 创建连接，尚未拨号
//
// 回调在 sched 上串行执行。
func New(token types.Token, handler interfaces.BufferHandler, sched *scheduler.Scheduler, cfg Config, reporter interfaces.Reporter) *Connector {
	c := &Connector{
		token:    token,
		cfg:      cfg,
		handler:  handler,
		sched:    sched,
		strand:   sched.NewStrand(),
		reporter: metrics.OrNoop(reporter),
		trace:    uuid.NewString(),
		closeCh:  make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	c.state.Store(int32(interfaces.ConnectorConnecting))
	return c
}

// OnClosed 设置关闭回调，须在 Connect 之前调用
func (c *Connector) OnClosed(fn ClosedFunc) {
	c.onClosed = fn
}

// Token 返回订阅的 Token
func (c *Connector) Token() types.Token { return c.token }

// TraceID 返回日志追踪 ID
func (c *Connector) TraceID() string { return c.trace }

// State 返回当前状态
func (c *Connector) State() interfaces.ConnectorState {
	return interfaces.ConnectorState(c.state.Load())
}

// IsClosed 是否已关闭
func (c *Connector) IsClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// Done 返回关闭时关闭的通道
func (c *Connector) Done() <-chan struct{} { return c.closeCh }

// Err 返回关闭原因
func (c *Connector) Err() error {
	select {
	case <-c.closeCh:
		return c.closeErr
	default:
		return nil
	}
}

// ============================================================================
//                              连接
// ============================================================================

// Connect 拨号、发送握手帧并启动读循环
//
// 失败时连接进入 Closed 并返回包装了 ErrConnect 的错误。
func (c *Connector) Connect(ctx context.Context) error {
	if c.IsClosed() {
		return ErrClosed
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closeCh:
			cancel()
		case <-dctx.Done():
		}
	}()

	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(dctx, "tcp", c.token.DialString())
	if err != nil {
		err = fmt.Errorf("%w: 拨号 %s: %w", ErrConnect, c.token.DialString(), err)
		c.closeWith(err, interfaces.CloseReadError)
		return err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	c.mu.Lock()
	if c.IsClosed() {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	if err := wire.WriteHandshake(conn, c.token.StreamID()); err != nil {
		err = fmt.Errorf("%w: %w", ErrConnect, err)
		c.closeWith(err, interfaces.CloseWriteError)
		return err
	}

	if !c.state.CompareAndSwap(int32(interfaces.ConnectorConnecting), int32(interfaces.ConnectorSubscribed)) {
		return ErrClosed
	}
	logger.Debug("订阅成功", "trace", c.trace, "token", c.token.Describe())

	c.started.Store(true)
	go c.readLoop(conn)
	return nil
}

// ============================================================================
//                              读循环
// ============================================================================

func (c *Connector) readLoop(conn net.Conn) {
	defer close(c.loopDone)

	for {
		payload, err := wire.ReadFrame(conn, c.cfg.MaxMessageSize)
		if err != nil {
			if c.IsClosed() {
				return
			}
			if errors.Is(err, wire.ErrFrameTooLarge) {
				c.closeWith(err, interfaces.CloseProtocolError)
			} else {
				c.closeWith(fmt.Errorf("%w: %w", ErrRead, err), interfaces.CloseReadError)
			}
			return
		}
		c.reporter.FrameReceived(len(payload))

		if !c.deliver(types.WrapBuffer(payload)) {
			return
		}
	}
}

// deliver 把回调投递到 Strand 并等待完成，连接关闭时返回 false
func (c *Connector) deliver(buf types.Buffer) bool {
	done := make(chan struct{})
	err := c.strand.Post(func() {
		defer close(done)
		if c.IsClosed() {
			return
		}
		c.handler(buf)
	})
	if err != nil {
		c.closeWith(fmt.Errorf("投递回调失败: %w", err), interfaces.CloseExplicit)
		return false
	}

	select {
	case <-done:
		return !c.IsClosed()
	case <-c.closeCh:
		return false
	case <-c.sched.Done():
		c.closeWith(scheduler.ErrStopped, interfaces.CloseExplicit)
		return false
	}
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭连接
//
// 幂等，可以在回调内部调用。返回后不会再开始新的回调。
func (c *Connector) Close() error {
	c.closeWith(nil, interfaces.CloseExplicit)
	if c.started.Load() {
		<-c.loopDone
	}
	return nil
}

func (c *Connector) closeWith(cause error, reason interfaces.CloseReason) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(interfaces.ConnectorClosed))
		c.closeErr = cause

		c.mu.Lock()
		close(c.closeCh)
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}

		c.reporter.ConnectorClosed(reason)
		if cause != nil {
			logger.Debug("连接异常关闭", "trace", c.trace, "token", c.token.Describe(), "error", cause)
		} else {
			logger.Debug("连接已关闭", "trace", c.trace, "token", c.token.Describe())
		}
		if c.onClosed != nil {
			c.onClosed(c, cause)
		}
	})
}

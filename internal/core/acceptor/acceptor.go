package acceptor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	tec "github.com/jbenet/go-temp-err-catcher"

	"github.com/simstream/go-simstream/internal/core/dispatcher"
	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/session"
	log "github.com/simstream/go-simstream/internal/util/logger"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

var logger = log.Logger("core/acceptor")

// permanentErrorDelay 非临时性 accept 错误后的等待时间
const permanentErrorDelay = 100 * time.Millisecond

// OpenedFunc 会话绑定成功回调
type OpenedFunc func(s *session.Session)

// Acceptor TCP 接入器
type Acceptor struct {
	cfg      Config
	d        *dispatcher.Dispatcher
	reporter interfaces.Reporter

	mu        sync.Mutex
	listener  *net.TCPListener
	handshake map[*session.Session]struct{}
	onOpened  OpenedFunc

	wg     sync.WaitGroup
	closed atomic.Bool
	done   chan struct{}
}

// New 创建 Acceptor
func New(cfg Config, d *dispatcher.Dispatcher, reporter interfaces.Reporter) *Acceptor {
	return &Acceptor{
		cfg:       cfg,
		d:         d,
		reporter:  metrics.OrNoop(reporter),
		handshake: make(map[*session.Session]struct{}),
		done:      make(chan struct{}),
	}
}

// OnOpened 设置会话绑定成功回调
func (a *Acceptor) OnOpened(fn OpenedFunc) {
	a.mu.Lock()
	a.onOpened = fn
	a.mu.Unlock()
}

// ============================================================================
//                              监听
// ============================================================================

// Listen 绑定监听地址，并把 Token 地址同步给 Dispatcher
//
// addr 为空时使用配置中的 ListenAddr。
func (a *Acceptor) Listen(addr string) error {
	if a.closed.Load() {
		return ErrAcceptorClosed
	}
	if addr == "" {
		addr = a.cfg.ListenAddr
	}

	lc := net.ListenConfig{}
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return fmt.Errorf("不是 TCP 监听器")
	}

	bound := tcpListener.Addr().(*net.TCPAddr).AddrPort()
	endpoint, err := TokenEndpoint(bound, a.cfg.ExternalAddr)
	if err != nil {
		_ = tcpListener.Close()
		return err
	}

	a.mu.Lock()
	if a.listener != nil {
		a.mu.Unlock()
		_ = tcpListener.Close()
		return fmt.Errorf("重复监听: %s", addr)
	}
	a.listener = tcpListener
	a.mu.Unlock()

	a.d.SetEndpoint(endpoint)
	logger.Info("开始监听", "addr", bound.String(), "endpoint", endpoint.String())
	return nil
}

// Addr 返回实际监听地址（端口 0 已解析）
func (a *Acceptor) Addr() netip.AddrPort {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return netip.AddrPort{}
	}
	return a.listener.Addr().(*net.TCPAddr).AddrPort()
}

// ============================================================================
//                              Accept 循环
// ============================================================================

// Serve 运行 accept 循环，直到 ctx 取消或 Close
func (a *Acceptor) Serve(ctx context.Context) error {
	a.mu.Lock()
	l := a.listener
	if l == nil {
		a.mu.Unlock()
		return ErrNotListening
	}
	if a.closed.Load() {
		a.mu.Unlock()
		return ErrAcceptorClosed
	}
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	stop := context.AfterFunc(ctx, func() { _ = a.Close() })
	defer stop()

	var catcher tec.TempErrCatcher
	for {
		conn, err := l.AcceptTCP()
		if err != nil {
			if a.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.reporter.AcceptError()
			if catcher.IsTemporary(err) {
				logger.Debug("临时性 accept 错误，退避重试", "error", err)
				continue
			}
			logger.Warn("接受连接失败", "error", fmt.Errorf("%w: %w", ErrAccept, err))
			select {
			case <-a.done:
				return nil
			case <-time.After(permanentErrorDelay):
			}
			continue
		}
		catcher.Reset()

		_ = conn.SetNoDelay(true)
		_ = conn.SetKeepAlive(true)

		a.wg.Add(1)
		go a.handle(conn)
	}
}

// handle 完成握手并绑定会话
func (a *Acceptor) handle(conn net.Conn) {
	defer a.wg.Done()

	sess := session.New(conn, session.Config{
		Timeout:  a.cfg.Timeout,
		Clock:    a.cfg.Clock,
		Reporter: a.reporter,
	})
	if !a.trackHandshake(sess) {
		_ = sess.Close()
		return
	}

	id, err := sess.Handshake()
	a.untrackHandshake(sess)
	if err != nil {
		a.reporter.HandshakeRejected("handshake")
		logger.Debug("握手失败", "remote", sess.RemoteAddr(), "error", err)
		_ = sess.Close()
		return
	}

	if err := a.d.Attach(sess, id); err != nil {
		if errors.Is(err, dispatcher.ErrUnknownStream) {
			a.reporter.HandshakeRejected("unknown_stream")
			logger.Warn("未知流，拒绝连接", "stream", id, "remote", sess.RemoteAddr())
		} else {
			logger.Debug("绑定会话失败", "stream", id, "remote", sess.RemoteAddr(), "error", err)
		}
		_ = sess.Close()
		return
	}

	a.mu.Lock()
	fn := a.onOpened
	a.mu.Unlock()
	if fn != nil {
		fn(sess)
	}
}

func (a *Acceptor) trackHandshake(s *session.Session) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return false
	}
	a.handshake[s] = struct{}{}
	return true
}

func (a *Acceptor) untrackHandshake(s *session.Session) {
	a.mu.Lock()
	delete(a.handshake, s)
	a.mu.Unlock()
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 停止监听并中止进行中的握手
//
// 已绑定的会话归 Dispatcher 管理，不在此关闭。
func (a *Acceptor) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(a.done)

	a.mu.Lock()
	l := a.listener
	pending := make([]*session.Session, 0, len(a.handshake))
	for s := range a.handshake {
		pending = append(pending, s)
	}
	a.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}
	for _, s := range pending {
		_ = s.Close()
	}
	a.wg.Wait()

	logger.Debug("Acceptor 已关闭", "aborted", len(pending))
	return err
}

// IsClosed 是否已关闭
func (a *Acceptor) IsClosed() bool {
	return a.closed.Load()
}

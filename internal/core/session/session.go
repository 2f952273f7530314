package session

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/wire"
	log "github.com/simstream/go-simstream/internal/util/logger"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

var logger = log.Logger("core/session")

// readBufferSize 读协程的丢弃缓冲区
const readBufferSize = 512

var nextID atomic.Uint64

// ClosedFunc 会话关闭回调，err 为 nil 表示主动关闭
type ClosedFunc func(s *Session, err error)

// Config 会话配置
type Config struct {
	// Timeout 空闲超时，同时用作握手读超时和单帧写超时
	Timeout time.Duration

	// Clock 空闲计时器时钟，nil 使用真实时钟
	Clock clock.Clock

	// Reporter 指标上报，nil 不上报
	Reporter interfaces.Reporter
}

// Session 服务端订阅会话
type Session struct {
	id       uint64
	conn     net.Conn
	remote   string
	timeout  time.Duration
	clock    clock.Clock
	reporter interfaces.Reporter

	streamID types.StreamID
	onClosed ClosedFunc

	state atomic.Int32

	// inFlight 为 true 时有一帧已交给写协程但尚未写完
	inFlight atomic.Bool
	pending  chan types.Buffer
	idle     chan struct{}

	timerMu sync.Mutex
	timer   *clock.Timer

	closeCh   chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// New 为已接受的连接创建会话，初始状态为 Handshaking
func New(conn net.Conn, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	s := &Session{
		id:       nextID.Add(1),
		conn:     conn,
		remote:   conn.RemoteAddr().String(),
		timeout:  cfg.Timeout,
		clock:    cfg.Clock,
		reporter: metrics.OrNoop(cfg.Reporter),
		pending:  make(chan types.Buffer, 1),
		idle:     make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	s.state.Store(int32(interfaces.SessionHandshaking))
	return s
}

// ============================================================================
//                              状态
// ============================================================================

// ID 返回进程内唯一的会话编号
func (s *Session) ID() uint64 { return s.id }

// StreamID 返回绑定的流 ID，Open 之前为 0
func (s *Session) StreamID() types.StreamID { return s.streamID }

// RemoteAddr 返回对端地址
func (s *Session) RemoteAddr() string { return s.remote }

// State 返回当前状态
func (s *Session) State() interfaces.SessionState {
	return interfaces.SessionState(s.state.Load())
}

// IsOpen 是否处于 Open 状态
func (s *Session) IsOpen() bool {
	return s.State() == interfaces.SessionOpen
}

// InFlight 是否有一帧正在发送
func (s *Session) InFlight() bool {
	return s.inFlight.Load()
}

// Err 返回关闭原因，未关闭或主动关闭时为 nil
func (s *Session) Err() error {
	select {
	case <-s.closeCh:
		return s.closeErr
	default:
		return nil
	}
}

// Done 返回会话关闭时关闭的通道
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// ============================================================================
//                              握手与打开
// ============================================================================

// Handshake 在超时内读取握手帧
func (s *Session) Handshake() (types.StreamID, error) {
	if s.timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	}
	id, err := wire.ReadHandshake(s.conn)
	_ = s.conn.SetReadDeadline(time.Time{})
	return id, err
}

// Open 绑定到流并开始服务
//
// 仅在 Handshaking 状态下有效。onClosed 在会话关闭时调用一次。
func (s *Session) Open(id types.StreamID, onClosed ClosedFunc) error {
	s.streamID = id
	s.onClosed = onClosed
	if !s.state.CompareAndSwap(int32(interfaces.SessionHandshaking), int32(interfaces.SessionOpen)) {
		return ErrClosed
	}

	s.reporter.SessionOpened()

	if s.timeout > 0 {
		s.timerMu.Lock()
		s.timer = s.clock.AfterFunc(s.timeout, s.onTimeout)
		s.timerMu.Unlock()
	}

	s.wg.Add(2)
	go s.writeLoop()
	go s.readLoop()

	logger.Debug("会话已打开", "session", s.id, "stream", id, "remote", s.remote)
	return nil
}

// ============================================================================
//                              写入
// ============================================================================

// Write 异步写入
//
// 有帧在发送中时丢弃 buf 并返回 false，从不阻塞。
func (s *Session) Write(buf types.Buffer) bool {
	if !s.IsOpen() {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.reporter.FrameDropped()
		return false
	}
	s.handoff(buf)
	return true
}

// WriteSync 同步写入
//
// 阻塞直到上一帧写完再交接 buf；会话关闭时返回 false。
func (s *Session) WriteSync(buf types.Buffer) bool {
	for {
		if !s.IsOpen() {
			return false
		}
		if s.inFlight.CompareAndSwap(false, true) {
			s.handoff(buf)
			return true
		}
		select {
		case <-s.idle:
		case <-s.closeCh:
			return false
		}
	}
}

// handoff 调用方已持有 inFlight
func (s *Session) handoff(buf types.Buffer) {
	s.pending <- buf
	s.resetTimer()
}

func (s *Session) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closeCh:
			return
		case buf := <-s.pending:
			if err := s.writeFrame(buf); err != nil {
				s.closeWith(fmt.Errorf("%w: %w", ErrWrite, err), interfaces.CloseWriteError)
				return
			}
			s.inFlight.Store(false)
			select {
			case s.idle <- struct{}{}:
			default:
			}
		}
	}
}

func (s *Session) writeFrame(buf types.Buffer) error {
	if s.timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	}
	if _, err := wire.WriteFrame(s.conn, buf.Bytes()); err != nil {
		return err
	}
	s.reporter.FrameSent(buf.Len())
	return nil
}

// ============================================================================
//                              读取
// ============================================================================

// readLoop 丢弃对端发来的数据，用于及时发现对端断开
func (s *Session) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.resetTimer()
		}
		if err != nil {
			s.closeWith(fmt.Errorf("%w: %w", ErrRead, err), interfaces.CloseReadError)
			return
		}
	}
}

// ============================================================================
//                              超时
// ============================================================================

func (s *Session) resetTimer() {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Reset(s.timeout)
	}
	s.timerMu.Unlock()
}

func (s *Session) onTimeout() {
	logger.Debug("会话空闲超时", "session", s.id, "stream", s.streamID, "timeout", s.timeout)
	s.closeWith(ErrTimeout, interfaces.CloseTimeout)
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 主动关闭会话并等待内部协程退出
func (s *Session) Close() error {
	s.closeWith(nil, interfaces.CloseExplicit)
	s.wg.Wait()
	return nil
}

func (s *Session) closeWith(cause error, reason interfaces.CloseReason) {
	s.closeOnce.Do(func() {
		prev := interfaces.SessionState(s.state.Swap(int32(interfaces.SessionClosing)))

		s.closeErr = cause
		close(s.closeCh)

		s.timerMu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timerMu.Unlock()

		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("关闭连接出错", "session", s.id, "error", err)
		}
		s.state.Store(int32(interfaces.SessionClosed))

		if prev != interfaces.SessionOpen {
			return
		}

		s.reporter.SessionClosed(reason)
		if cause != nil {
			logger.Debug("会话异常关闭", "session", s.id, "stream", s.streamID, "reason", reason, "error", cause)
		} else {
			logger.Debug("会话已关闭", "session", s.id, "stream", s.streamID)
		}
		if s.onClosed != nil {
			s.onClosed(s, cause)
		}
	})
}

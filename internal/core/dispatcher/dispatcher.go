package dispatcher

import (
	"fmt"
	"math"
	"net/netip"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/internal/core/session"
	log "github.com/simstream/go-simstream/internal/util/logger"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

var logger = log.Logger("core/dispatcher")

// Dispatcher 流注册表
type Dispatcher struct {
	sched    *scheduler.Scheduler
	reporter interfaces.Reporter

	mu       sync.RWMutex
	streams  map[types.StreamID]*StreamState
	next     uint64
	endpoint netip.AddrPort

	synchronous atomic.Bool
	closed      atomic.Bool
}

// New 创建 Dispatcher
func New(sched *scheduler.Scheduler, reporter interfaces.Reporter) *Dispatcher {
	return &Dispatcher{
		sched:    sched,
		reporter: metrics.OrNoop(reporter),
		streams:  make(map[types.StreamID]*StreamState),
		next:     1,
	}
}

// ============================================================================
//                              配置
// ============================================================================

// SetEndpoint 设置写入 Token 的地址
//
// 之后签发的 Token 使用新地址，已签发的 Token 不变。
func (d *Dispatcher) SetEndpoint(ap netip.AddrPort) {
	d.mu.Lock()
	d.endpoint = ap
	d.mu.Unlock()
}

// Endpoint 返回当前 Token 地址
func (d *Dispatcher) Endpoint() netip.AddrPort {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.endpoint
}

// SetSynchronousMode 切换同步写模式，仅影响本 Dispatcher
func (d *Dispatcher) SetSynchronousMode(enabled bool) {
	d.synchronous.Store(enabled)
}

// IsSynchronous 是否处于同步写模式
func (d *Dispatcher) IsSynchronous() bool {
	return d.synchronous.Load()
}

// ============================================================================
//                              流管理
// ============================================================================

// MakeStream 分配新流
//
// 跳过已被 GetToken 占用的 ID；32 位空间耗尽时返回 ErrStreamIDExhausted。
func (d *Dispatcher) MakeStream() (*Stream, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	d.mu.Lock()
	var id types.StreamID
	found := false
	for d.next <= math.MaxUint32 {
		candidate := types.StreamID(d.next)
		d.next++
		if _, exists := d.streams[candidate]; !exists {
			id, found = candidate, true
			break
		}
	}
	if !found {
		d.mu.Unlock()
		return nil, ErrStreamIDExhausted
	}
	st := d.registerLocked(id)
	d.mu.Unlock()

	logger.Debug("创建流", "stream", id, "token", st.token.Describe())
	return &Stream{d: d, state: st}, nil
}

// GetToken 返回 id 对应的 Token
//
// 流不存在时以该 id 注册并强制激活，用于 id 由外部分配的传感器。
func (d *Dispatcher) GetToken(id types.StreamID) types.Token {
	d.mu.Lock()
	st, ok := d.streams[id]
	if !ok {
		st = d.registerLocked(id)
		logger.Debug("按指定 ID 注册流", "stream", id)
	}
	d.mu.Unlock()

	st.forceActive.Store(true)
	return st.token
}

// StreamByID 返回已注册流的生产端句柄
func (d *Dispatcher) StreamByID(id types.StreamID) (*Stream, bool) {
	st, ok := d.Lookup(id)
	if !ok {
		return nil, false
	}
	return &Stream{d: d, state: st}, true
}

func (d *Dispatcher) registerLocked(id types.StreamID) *StreamState {
	token := types.TokenFromAddrPort(d.endpoint, id)
	st := newStreamState(id, token, d.sched.NewStrand())
	d.streams[id] = st
	d.reporter.StreamOpened()
	return st
}

// Lookup 查找流状态，未知或已注销返回 false
func (d *Dispatcher) Lookup(id types.StreamID) (*StreamState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.streams[id]
	return st, ok
}

// AreClientsListening 流是否有订阅者
func (d *Dispatcher) AreClientsListening(id types.StreamID) bool {
	st, ok := d.Lookup(id)
	return ok && st.AreClientsListening()
}

// StreamCount 返回已注册流数量
func (d *Dispatcher) StreamCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.streams)
}

// CloseStream 注销流并关闭其全部会话，未知 id 忽略
func (d *Dispatcher) CloseStream(id types.StreamID) {
	st, ok := d.Lookup(id)
	if !ok {
		return
	}
	if err := d.closeState(st); err != nil {
		logger.Debug("关闭流会话出错", "stream", id, "error", err)
	}
}

func (d *Dispatcher) closeState(st *StreamState) error {
	d.mu.Lock()
	cur, ok := d.streams[st.id]
	if !ok || cur != st {
		d.mu.Unlock()
		return nil
	}
	delete(d.streams, st.id)
	d.mu.Unlock()

	d.reporter.StreamClosed()
	logger.Debug("注销流", "stream", st.id, "sessions", st.SessionCount())
	return st.retire()
}

// ============================================================================
//                              会话绑定
// ============================================================================

// Attach 打开已完成握手的会话并绑定到 id 对应的流
//
// 流不存在时返回 ErrUnknownStream，会话保持未打开状态，由调用方关闭。
func (d *Dispatcher) Attach(s *session.Session, id types.StreamID) error {
	if _, ok := d.Lookup(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStream, id)
	}
	if err := s.Open(id, d.sessionClosed); err != nil {
		return err
	}
	if err := d.RegisterSession(s); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// RegisterSession 将已打开的会话加入其流的订阅集合
func (d *Dispatcher) RegisterSession(s *session.Session) error {
	st, ok := d.Lookup(s.StreamID())
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStream, s.StreamID())
	}
	if err := st.add(s); err != nil {
		return err
	}
	logger.Debug("会话已绑定", "session", s.ID(), "stream", st.id, "remote", s.RemoteAddr(), "subscribers", st.SessionCount())
	return nil
}

// DeregisterSession 将会话从其流的订阅集合移除
func (d *Dispatcher) DeregisterSession(s *session.Session) {
	st, ok := d.Lookup(s.StreamID())
	if !ok {
		return
	}
	if st.remove(s) {
		logger.Debug("会话已解绑", "session", s.ID(), "stream", st.id, "subscribers", st.SessionCount())
	}
}

func (d *Dispatcher) sessionClosed(s *session.Session, _ error) {
	d.DeregisterSession(s)
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 注销全部流并关闭全部会话
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	d.mu.Lock()
	states := make([]*StreamState, 0, len(d.streams))
	for _, st := range d.streams {
		states = append(states, st)
	}
	d.streams = make(map[types.StreamID]*StreamState)
	d.mu.Unlock()

	var errs error
	for _, st := range states {
		d.reporter.StreamClosed()
		errs = multierr.Append(errs, st.retire())
	}
	logger.Debug("Dispatcher 已关闭", "streams", len(states))
	return errs
}

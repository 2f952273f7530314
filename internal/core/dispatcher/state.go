package dispatcher

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/internal/core/session"
	"github.com/simstream/go-simstream/pkg/types"
)

// StreamState 单个流的订阅状态
type StreamState struct {
	id     types.StreamID
	token  types.Token
	strand *scheduler.Strand

	mu       sync.Mutex
	sessions atomic.Pointer[[]*session.Session]
	retired  bool

	// forceActive 通过 GetToken 注册的流始终视为有订阅者
	forceActive atomic.Bool
}

func newStreamState(id types.StreamID, token types.Token, strand *scheduler.Strand) *StreamState {
	st := &StreamState{id: id, token: token, strand: strand}
	st.sessions.Store(&[]*session.Session{})
	return st
}

// ID 返回流 ID
func (st *StreamState) ID() types.StreamID { return st.id }

// Token 返回流的 Token
func (st *StreamState) Token() types.Token { return st.token }

// Sessions 返回当前订阅会话快照，调用方不得修改
func (st *StreamState) Sessions() []*session.Session {
	return *st.sessions.Load()
}

// SessionCount 返回当前订阅会话数
func (st *StreamState) SessionCount() int {
	return len(st.Sessions())
}

// AreClientsListening 是否有订阅者或被强制激活
func (st *StreamState) AreClientsListening() bool {
	return st.forceActive.Load() || st.SessionCount() > 0
}

func (st *StreamState) add(s *session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.retired {
		return ErrUnknownStream
	}
	if !s.IsOpen() {
		return session.ErrClosed
	}

	cur := st.Sessions()
	next := make([]*session.Session, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, s)
	st.sessions.Store(&next)
	return nil
}

func (st *StreamState) remove(s *session.Session) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	cur := st.Sessions()
	i := slices.Index(cur, s)
	if i < 0 {
		return false
	}
	next := make([]*session.Session, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	st.sessions.Store(&next)
	return true
}

// retire 标记流已注销并关闭全部会话
func (st *StreamState) retire() error {
	st.mu.Lock()
	st.retired = true
	cur := st.Sessions()
	st.sessions.Store(&[]*session.Session{})
	st.mu.Unlock()

	var errs error
	for _, s := range cur {
		errs = multierr.Append(errs, s.Close())
	}
	return errs
}

// fanOut 异步模式扇出，写入在发送中的会话会丢弃 buf
func (st *StreamState) fanOut(buf types.Buffer) {
	for _, s := range st.Sessions() {
		s.Write(buf)
	}
}

// fanOutSync 同步模式扇出
func (st *StreamState) fanOutSync(buf types.Buffer) {
	for _, s := range st.Sessions() {
		s.WriteSync(buf)
	}
}

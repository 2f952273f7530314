package dispatcher

import (
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

// Stream 生产端句柄
type Stream struct {
	d     *Dispatcher
	state *StreamState
}

var _ interfaces.Stream = (*Stream)(nil)

// ID 返回流 ID
func (s *Stream) ID() types.StreamID { return s.state.id }

// Token 返回订阅用 Token
func (s *Stream) Token() types.Token { return s.state.token }

// Write 扇出 buf 到全部订阅会话
//
// 无订阅者时立即返回，不排队也不缓存。
// 异步模式下投递到流的 Strand 后返回；同步模式下逐个会话等待上一帧写完。
func (s *Stream) Write(buf types.Buffer) {
	st := s.state
	if st.SessionCount() == 0 {
		return
	}

	if s.d.IsSynchronous() {
		st.fanOutSync(buf)
		return
	}
	if err := st.strand.Post(func() { st.fanOut(buf) }); err != nil {
		logger.Debug("投递扇出任务失败，丢弃", "stream", st.id, "error", err)
	}
}

// AreClientsListening 是否有订阅者
func (s *Stream) AreClientsListening() bool {
	return s.state.AreClientsListening()
}

// Close 注销流并关闭全部订阅会话
func (s *Stream) Close() error {
	return s.d.closeState(s.state)
}

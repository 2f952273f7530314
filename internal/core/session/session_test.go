package session

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simstream/go-simstream/internal/core/metrics"
	"github.com/simstream/go-simstream/internal/core/wire"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

// countingReporter 记录测试关心的指标
type countingReporter struct {
	metrics.Noop
	opened  atomic.Int32
	closed  atomic.Int32
	dropped atomic.Int32
	sent    atomic.Int32
	reason  atomic.Value
}

func (r *countingReporter) SessionOpened() { r.opened.Add(1) }
func (r *countingReporter) SessionClosed(reason interfaces.CloseReason) {
	r.closed.Add(1)
	r.reason.Store(reason)
}
func (r *countingReporter) FrameDropped() { r.dropped.Add(1) }
func (r *countingReporter) FrameSent(int) { r.sent.Add(1) }

// closedRecorder 记录 OnClosed 回调
type closedRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *closedRecorder) fn(_ *Session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.err = err
}

func (c *closedRecorder) get() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.err
}

// openPipeSession 在 net.Pipe 上打开会话，返回会话与客户端一侧
func openPipeSession(t *testing.T, cfg Config, rec *closedRecorder) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	s := New(server, cfg)
	t.Cleanup(func() { s.Close() })

	var fn ClosedFunc
	if rec != nil {
		fn = rec.fn
	}
	require.NoError(t, s.Open(7, fn))
	return s, client
}

// ============================================================================
// 握手
// ============================================================================

func TestHandshake(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := New(server, Config{Timeout: time.Second})
	defer s.Close()
	assert.Equal(t, interfaces.SessionHandshaking, s.State())

	go wire.WriteHandshake(client, 42)

	id, err := s.Handshake()
	require.NoError(t, err)
	assert.Equal(t, types.StreamID(42), id)
}

func TestHandshake_Short(t *testing.T) {
	server, client := net.Pipe()

	s := New(server, Config{Timeout: time.Second})
	defer s.Close()

	go func() {
		client.Write([]byte{1, 2})
		client.Close()
	}()

	_, err := s.Handshake()
	assert.ErrorIs(t, err, wire.ErrHandshake)
}

func TestHandshake_Timeout(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := New(server, Config{Timeout: 20 * time.Millisecond})
	defer s.Close()

	start := time.Now()
	_, err := s.Handshake()
	assert.ErrorIs(t, err, wire.ErrHandshake)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClose_BeforeOpen(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	rep := &countingReporter{}
	s := New(server, Config{Reporter: rep})
	rec := &closedRecorder{}

	require.NoError(t, s.Close())
	assert.Equal(t, interfaces.SessionClosed, s.State())
	assert.ErrorIs(t, s.Open(1, rec.fn), ErrClosed)

	calls, _ := rec.get()
	assert.Zero(t, calls, "未打开的会话不触发 OnClosed")
	assert.Zero(t, rep.closed.Load())
}

// ============================================================================
// 写入
// ============================================================================

func TestWrite_DropsWhileInFlight(t *testing.T) {
	rep := &countingReporter{}
	s, client := openPipeSession(t, Config{Timeout: time.Minute, Reporter: rep}, nil)

	require.True(t, s.Write(types.BufferFromString("A")))
	require.Eventually(t, s.InFlight, time.Second, time.Millisecond)

	assert.False(t, s.Write(types.BufferFromString("B")), "上一帧未写完时应丢弃")
	assert.EqualValues(t, 1, rep.dropped.Load())

	got, err := wire.ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))

	require.Eventually(t, func() bool { return !s.InFlight() }, time.Second, time.Millisecond)
	require.True(t, s.Write(types.BufferFromString("C")))

	got, err = wire.ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Equal(t, "C", string(got))
}

func TestWriteSync_WaitsForInFlight(t *testing.T) {
	s, client := openPipeSession(t, Config{Timeout: time.Minute}, nil)

	require.True(t, s.Write(types.BufferFromString("first")))

	var returned atomic.Bool
	go func() {
		s.WriteSync(types.BufferFromString("second"))
		returned.Store(true)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, returned.Load(), "上一帧未写完时应阻塞")

	for _, want := range []string{"first", "second"} {
		got, err := wire.ReadFrame(client, 0)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	require.Eventually(t, returned.Load, time.Second, time.Millisecond)
}

func TestWriteSync_UnblocksOnClose(t *testing.T) {
	s, _ := openPipeSession(t, Config{Timeout: time.Minute}, nil)

	require.True(t, s.Write(types.BufferFromString("stuck")))

	result := make(chan bool, 1)
	go func() { result <- s.WriteSync(types.BufferFromString("never")) }()

	time.Sleep(10 * time.Millisecond)
	s.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("会话关闭后 WriteSync 应返回")
	}
}

func TestWrite_ZeroLength(t *testing.T) {
	s, client := openPipeSession(t, Config{Timeout: time.Minute}, nil)

	require.True(t, s.Write(types.Buffer{}))

	got, err := wire.ReadFrame(client, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWrite_AfterClose(t *testing.T) {
	s, _ := openPipeSession(t, Config{}, nil)
	s.Close()

	assert.False(t, s.Write(types.BufferFromString("x")))
	assert.False(t, s.WriteSync(types.BufferFromString("x")))
}

// ============================================================================
// 空闲超时
// ============================================================================

func TestIdleTimeout(t *testing.T) {
	mock := clock.NewMock()
	rec := &closedRecorder{}
	rep := &countingReporter{}
	s, _ := openPipeSession(t, Config{Timeout: 10 * time.Second, Clock: mock, Reporter: rep}, rec)

	mock.Add(9 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, s.IsOpen(), "超时之前不应关闭")

	mock.Add(2 * time.Second)
	require.Eventually(t, func() bool { return s.State() == interfaces.SessionClosed }, time.Second, time.Millisecond)

	calls, err := rec.get()
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, s.Err(), ErrTimeout)
	assert.Equal(t, interfaces.CloseTimeout, rep.reason.Load())
}

func TestIdleTimeout_ResetByWrite(t *testing.T) {
	mock := clock.NewMock()
	s, client := openPipeSession(t, Config{Timeout: 10 * time.Second, Clock: mock}, nil)

	go func() {
		for {
			if _, err := wire.ReadFrame(client, 0); err != nil {
				return
			}
		}
	}()

	mock.Add(9 * time.Second)
	require.True(t, s.Write(types.BufferFromString("keepalive")))
	mock.Add(9 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, s.IsOpen(), "写入应重置空闲计时")

	mock.Add(2 * time.Second)
	require.Eventually(t, func() bool { return !s.IsOpen() }, time.Second, time.Millisecond)
}

// ============================================================================
// 关闭
// ============================================================================

func TestPeerClose(t *testing.T) {
	rec := &closedRecorder{}
	rep := &countingReporter{}
	s, client := openPipeSession(t, Config{Timeout: time.Minute, Reporter: rep}, rec)

	client.Close()

	require.Eventually(t, func() bool { return s.State() == interfaces.SessionClosed }, time.Second, time.Millisecond)
	calls, err := rec.get()
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ErrRead)
	assert.EqualValues(t, 1, rep.opened.Load())
	assert.EqualValues(t, 1, rep.closed.Load())
}

func TestClose_Once(t *testing.T) {
	rec := &closedRecorder{}
	s, _ := openPipeSession(t, Config{Timeout: time.Minute}, rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()

	calls, err := rec.get()
	assert.Equal(t, 1, calls, "OnClosed 只触发一次")
	assert.NoError(t, err, "主动关闭原因为 nil")
	assert.Equal(t, interfaces.SessionClosed, s.State())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done 通道应已关闭")
	}
}

package dispatcher

import (
	"math"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"pgregory.net/rapid"

	"github.com/simstream/go-simstream/config"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/internal/core/session"
	"github.com/simstream/go-simstream/internal/core/wire"
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

var testEndpoint = netip.MustParseAddrPort("127.0.0.1:2000")

func newTestDispatcher(t *testing.T, running bool) (*Dispatcher, *scheduler.Scheduler) {
	t.Helper()
	sched := scheduler.New(scheduler.DefaultConfig())
	if running {
		sched.AsyncRun(2)
	}
	d := New(sched, nil)
	d.SetEndpoint(testEndpoint)
	t.Cleanup(func() {
		d.Close()
		sched.Stop()
	})
	return d, sched
}

// attachPipe 创建一个绑定到 id 的会话，返回客户端一侧
func attachPipe(t *testing.T, d *Dispatcher, id types.StreamID) (*session.Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	s := session.New(server, session.Config{Timeout: time.Minute})
	require.NoError(t, d.Attach(s, id))
	return s, client
}

// ============================================================================
// 流管理
// ============================================================================

func TestMakeStream_SequentialIDs(t *testing.T) {
	d, _ := newTestDispatcher(t, false)

	for want := types.StreamID(1); want <= 3; want++ {
		s, err := d.MakeStream()
		require.NoError(t, err)
		assert.Equal(t, want, s.ID())
		assert.Equal(t, types.NewToken(testEndpoint.Addr(), testEndpoint.Port(), want), s.Token())
	}
	assert.Equal(t, 3, d.StreamCount())
}

func TestMakeStream_SkipsExternallyAssignedIDs(t *testing.T) {
	d, _ := newTestDispatcher(t, false)

	tok := d.GetToken(2)
	assert.Equal(t, types.StreamID(2), tok.StreamID())
	assert.True(t, d.AreClientsListening(2), "GetToken 注册的流强制激活")

	a, err := d.MakeStream()
	require.NoError(t, err)
	b, err := d.MakeStream()
	require.NoError(t, err)

	assert.Equal(t, types.StreamID(1), a.ID())
	assert.Equal(t, types.StreamID(3), b.ID())
	assert.Equal(t, tok, d.GetToken(2), "已存在的流返回原 Token")
}

func TestMakeStream_Exhausted(t *testing.T) {
	d, _ := newTestDispatcher(t, false)
	d.next = math.MaxUint32

	s, err := d.MakeStream()
	require.NoError(t, err)
	assert.Equal(t, types.StreamID(math.MaxUint32), s.ID())

	_, err = d.MakeStream()
	assert.ErrorIs(t, err, ErrStreamIDExhausted)
}

func TestCloseStream(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	s, err := d.MakeStream()
	require.NoError(t, err)
	sess, _ := attachPipe(t, d, s.ID())

	d.CloseStream(s.ID())

	_, ok := d.Lookup(s.ID())
	assert.False(t, ok)
	assert.Equal(t, interfaces.SessionClosed, sess.State())
	assert.False(t, s.AreClientsListening())

	d.CloseStream(s.ID())
	d.CloseStream(999)
}

func TestStream_CloseRetiresID(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	s, err := d.MakeStream()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	server, client := net.Pipe()
	defer client.Close()
	sess := session.New(server, session.Config{})
	defer sess.Close()

	assert.ErrorIs(t, d.Attach(sess, s.ID()), ErrUnknownStream)

	next, err := d.MakeStream()
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), next.ID(), "注销的 ID 不复用")
}

// ============================================================================
// 会话绑定
// ============================================================================

func TestAttach_UnknownStream(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	server, client := net.Pipe()
	defer client.Close()
	sess := session.New(server, session.Config{})
	defer sess.Close()

	err := d.Attach(sess, 42)
	assert.ErrorIs(t, err, ErrUnknownStream)
	assert.Equal(t, interfaces.SessionHandshaking, sess.State(), "未知流不应打开会话")
}

func TestSessionClose_Deregisters(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	s, err := d.MakeStream()
	require.NoError(t, err)

	_, c1 := attachPipe(t, d, s.ID())
	sess2, _ := attachPipe(t, d, s.ID())

	st, ok := d.Lookup(s.ID())
	require.True(t, ok)
	assert.Equal(t, 2, st.SessionCount())

	c1.Close()
	require.Eventually(t, func() bool { return st.SessionCount() == 1 }, time.Second, time.Millisecond)
	assert.Same(t, sess2, st.Sessions()[0])

	sess2.Close()
	assert.Zero(t, st.SessionCount())
	assert.False(t, s.AreClientsListening())
}

// ============================================================================
// 扇出
// ============================================================================

func TestWrite_NoSubscribersIsNoop(t *testing.T) {
	d, sched := newTestDispatcher(t, false)

	rapid.Check(t, func(rt *rapid.T) {
		s, err := d.MakeStream()
		if err != nil {
			rt.Fatal(err)
		}
		sync := rapid.Bool().Draw(rt, "sync")
		d.SetSynchronousMode(sync)

		n := rapid.IntRange(0, 500).Draw(rt, "writes")
		for i := 0; i < n; i++ {
			s.Write(types.NewBuffer(rapid.SliceOf(rapid.Byte()).Draw(rt, "payload")))
		}

		if sched.Pending() != 0 {
			rt.Fatalf("无订阅者时不应排队任务，pending=%d", sched.Pending())
		}
		if s.state.strand.Len() != 0 {
			rt.Fatalf("无订阅者时 Strand 不应增长")
		}
	})
}

func TestWrite_FanOutAndIsolation(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	d.SetSynchronousMode(true)

	a, err := d.MakeStream()
	require.NoError(t, err)
	b, err := d.MakeStream()
	require.NoError(t, err)

	_, ca1 := attachPipe(t, d, a.ID())
	_, ca2 := attachPipe(t, d, a.ID())
	_, cb := attachPipe(t, d, b.ID())

	go a.Write(types.BufferFromString("for-a"))

	for _, c := range []net.Conn{ca1, ca2} {
		got, err := wire.ReadFrame(c, 0)
		require.NoError(t, err)
		assert.Equal(t, "for-a", string(got))
	}

	require.NoError(t, cb.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err = wire.ReadFrame(cb, 0)
	assert.Error(t, err, "其他流的订阅者不应收到数据")
}

func TestWrite_SynchronousDeliversAllInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	d.SetSynchronousMode(true)

	s, err := d.MakeStream()
	require.NoError(t, err)
	_, client := attachPipe(t, d, s.ID())

	const n = 50
	go func() {
		for i := 0; i < n; i++ {
			s.Write(types.NewBuffer([]byte{byte(i)}))
		}
	}()

	for i := 0; i < n; i++ {
		got, err := wire.ReadFrame(client, 0)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, got)
	}
}

func TestWrite_AsyncPreservesOrder(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	s, err := d.MakeStream()
	require.NoError(t, err)
	_, client := attachPipe(t, d, s.ID())

	received := make(chan byte, 256)
	go func() {
		for {
			got, err := wire.ReadFrame(client, 0)
			if err != nil {
				close(received)
				return
			}
			received <- got[0]
		}
	}()

	for i := 0; i < 200; i++ {
		s.Write(types.NewBuffer([]byte{byte(i)}))
	}
	time.Sleep(50 * time.Millisecond)
	client.Close()

	last := -1
	for v := range received {
		require.Greater(t, int(v), last, "异步模式可以丢帧但不能乱序")
		last = int(v)
	}
	assert.GreaterOrEqual(t, last, 0, "至少收到一帧")
}

// ============================================================================
// 关闭
// ============================================================================

func TestDispatcher_Close(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	var sessions []*session.Session
	for i := 0; i < 3; i++ {
		s, err := d.MakeStream()
		require.NoError(t, err)
		sess, _ := attachPipe(t, d, s.ID())
		sessions = append(sessions, sess)
	}

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	for _, sess := range sessions {
		assert.Equal(t, interfaces.SessionClosed, sess.State())
	}
	assert.Zero(t, d.StreamCount())

	_, err := d.MakeStream()
	assert.ErrorIs(t, err, ErrClosed)
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Server.SynchronousMode = true

	var d *Dispatcher
	app := fxtest.New(t,
		fx.Supply(cfg),
		scheduler.Module(),
		Module(),
		fx.Populate(&d),
	)
	app.RequireStart()

	require.NotNil(t, d)
	assert.True(t, d.IsSynchronous())
	_, err := d.MakeStream()
	require.NoError(t, err)

	app.RequireStop()
	assert.Zero(t, d.StreamCount())
}

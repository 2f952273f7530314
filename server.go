package simstream

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/simstream/go-simstream/internal/core/acceptor"
	"github.com/simstream/go-simstream/internal/core/dispatcher"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// stopTimeout 关闭时等待组件退出的上限
const stopTimeout = 10 * time.Second

// Server 流服务端
type Server struct {
	app *fx.App

	dispatcher *dispatcher.Dispatcher
	acceptor   *acceptor.Acceptor

	mu      sync.Mutex
	started bool
	closed  bool
}

var _ interfaces.StreamServer = (*Server)(nil)

// NewServer 创建服务端，尚未监听
func NewServer(opts ...Option) (*Server, error) {
	o := newOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	srv := &Server{}
	app, err := buildServerApp(o, srv)
	if err != nil {
		return nil, err
	}
	srv.app = app
	return srv, nil
}

// Start 监听并开始接受订阅
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if err := s.app.Start(ctx); err != nil {
		logger.Error("服务端启动失败", "error", err)
		return err
	}
	s.started = true
	logger.Info("服务端已启动", "addr", s.acceptor.Addr().String(), "endpoint", s.dispatcher.Endpoint().String())
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() netip.AddrPort {
	return s.acceptor.Addr()
}

// Endpoint 返回写入 Token 的地址
func (s *Server) Endpoint() netip.AddrPort {
	return s.dispatcher.Endpoint()
}

// MakeStream 创建新流
func (s *Server) MakeStream() (Stream, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}
	st, err := s.dispatcher.MakeStream()
	if err != nil {
		return nil, err
	}
	return st, nil
}

// StreamByID 返回已注册流的句柄，包括通过 GetToken 注册的流
func (s *Server) StreamByID(id StreamID) (Stream, bool) {
	st, ok := s.dispatcher.StreamByID(id)
	if !ok {
		return nil, false
	}
	return st, true
}

// CloseStream 注销流并关闭其全部订阅
func (s *Server) CloseStream(id StreamID) {
	s.dispatcher.CloseStream(id)
}

// GetToken 返回 id 对应流的 Token，流不存在时以该 id 注册
func (s *Server) GetToken(id StreamID) Token {
	return s.dispatcher.GetToken(id)
}

// AreClientsListening 流是否有订阅者
func (s *Server) AreClientsListening(id StreamID) bool {
	return s.dispatcher.AreClientsListening(id)
}

// SetSynchronousMode 切换本服务端的写模式
func (s *Server) SetSynchronousMode(enabled bool) {
	s.dispatcher.SetSynchronousMode(enabled)
}

// IsSynchronous 是否处于同步写模式
func (s *Server) IsSynchronous() bool {
	return s.dispatcher.IsSynchronous()
}

// Close 关闭服务端：停止监听、关闭全部会话、停止调度器
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		logger.Warn("服务端关闭出错", "error", err)
		return err
	}
	logger.Info("服务端已关闭")
	return nil
}

func (s *Server) checkRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

package simstream

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/simstream/go-simstream/internal/core/multiplexer"
	"github.com/simstream/go-simstream/pkg/interfaces"
)

// Client 流客户端
//
// 所有订阅共享一个调度器，同一订阅的回调串行执行。
type Client struct {
	app *fx.App
	mux *multiplexer.Multiplexer

	mu      sync.Mutex
	started bool
	closed  bool
}

var _ interfaces.StreamClient = (*Client)(nil)

// NewClient 创建客户端
func NewClient(opts ...Option) (*Client, error) {
	o := newOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	cli := &Client{}
	app, err := buildClientApp(o, cli)
	if err != nil {
		return nil, err
	}
	cli.app = app
	return cli, nil
}

// Start 启动回调调度
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	if err := c.app.Start(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Subscribe 订阅 token，连接建立后返回
func (c *Client) Subscribe(ctx context.Context, token Token, handler BufferHandler) error {
	if err := c.checkRunning(); err != nil {
		return err
	}
	return c.mux.Subscribe(ctx, token, handler)
}

// Unsubscribe 取消订阅，返回后不再开始该 token 的回调
//
// 可以在回调内部调用。
func (c *Client) Unsubscribe(token Token) {
	c.mux.Unsubscribe(token)
}

// Subscriptions 返回当前订阅的 Token
func (c *Client) Subscriptions() []Token {
	return c.mux.Subscriptions()
}

// Close 关闭全部订阅并停止调度器
//
// 不得在回调内部调用。
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if !c.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return c.app.Stop(ctx)
}

func (c *Client) checkRunning() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.started {
		return ErrNotStarted
	}
	return nil
}

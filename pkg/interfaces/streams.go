package interfaces

import (
	"context"

	"github.com/simstream/go-simstream/pkg/types"
)

// BufferHandler 消费端收到一个完整负载时的回调
//
// 同一订阅的回调串行执行，顺序与服务端发送顺序一致。
type BufferHandler func(buf types.Buffer)

// ClosedHandler 连接关闭回调，err 为 nil 表示主动关闭
type ClosedHandler func(token types.Token, err error)

// Stream 生产端句柄
//
// Write 可以在任意 goroutine 中调用，从不向生产者返回错误：
// 慢消费者或已断开的消费者只会表现为数据被丢弃。
type Stream interface {
	// ID 返回流 ID
	ID() types.StreamID

	// Token 返回供消费端订阅的 Token
	Token() types.Token

	// Write 将 buf 扇出到当前所有订阅会话
	Write(buf types.Buffer)

	// AreClientsListening 是否有订阅者（或被强制激活）
	AreClientsListening() bool

	// Close 注销流并关闭所有订阅会话
	Close() error
}

// StreamServer 流服务端
type StreamServer interface {
	// MakeStream 创建新流
	MakeStream() (Stream, error)

	// CloseStream 关闭指定流
	CloseStream(id types.StreamID)

	// GetToken 返回指定流的 Token，流不存在时以该 ID 注册
	GetToken(id types.StreamID) types.Token

	// SetSynchronousMode 切换同步写模式
	SetSynchronousMode(enabled bool)

	// Close 关闭服务端
	Close() error
}

// StreamClient 流客户端
//
// 同一个 StreamClient 上不得对同一个仍在订阅中的 Token 重复 Subscribe。
type StreamClient interface {
	// Subscribe 订阅 token 指向的流
	Subscribe(ctx context.Context, token types.Token, handler BufferHandler) error

	// Unsubscribe 取消订阅，返回后不再触发该 token 的回调
	Unsubscribe(token types.Token)

	// Close 关闭客户端及所有订阅
	Close() error
}

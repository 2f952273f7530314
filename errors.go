package simstream

import (
	"errors"

	"github.com/simstream/go-simstream/internal/core/acceptor"
	"github.com/simstream/go-simstream/internal/core/connector"
	"github.com/simstream/go-simstream/internal/core/dispatcher"
	"github.com/simstream/go-simstream/internal/core/multiplexer"
	"github.com/simstream/go-simstream/internal/core/scheduler"
	"github.com/simstream/go-simstream/internal/core/session"
	"github.com/simstream/go-simstream/internal/core/wire"
	"github.com/simstream/go-simstream/pkg/types"
)

// 公共错误定义，使用 errors.Is 判断
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 尚未调用 Start
	ErrNotStarted = errors.New("not started")

	// ErrAlreadyStarted 重复调用 Start
	ErrAlreadyStarted = errors.New("already started")

	// ErrClosed 已关闭
	ErrClosed = errors.New("closed")

	// ErrStopped 调度器已停止
	ErrStopped = scheduler.ErrStopped

	// ────────────────────────────────────────────────────────────────────────
	// 服务端
	// ────────────────────────────────────────────────────────────────────────

	// ErrHandshake 握手帧不完整
	ErrHandshake = wire.ErrHandshake

	// ErrUnknownStream 握手声明的流不存在
	ErrUnknownStream = dispatcher.ErrUnknownStream

	// ErrStreamIDExhausted StreamID 空间耗尽
	ErrStreamIDExhausted = dispatcher.ErrStreamIDExhausted

	// ErrAccept 接受连接失败
	ErrAccept = acceptor.ErrAccept

	// ErrWrite 向订阅者写数据失败
	ErrWrite = session.ErrWrite

	// ErrTimeout 订阅会话空闲超时
	ErrTimeout = session.ErrTimeout

	// ────────────────────────────────────────────────────────────────────────
	// 客户端
	// ────────────────────────────────────────────────────────────────────────

	// ErrConnect 拨号或握手失败
	ErrConnect = connector.ErrConnect

	// ErrRead 读失败或服务端断开
	ErrRead = connector.ErrRead

	// ErrFrameTooLarge 数据帧超过 MaxMessageSize
	ErrFrameTooLarge = wire.ErrFrameTooLarge

	// ErrAlreadySubscribed 同一 Token 已在订阅中
	ErrAlreadySubscribed = multiplexer.ErrAlreadySubscribed

	// ErrInvalidToken Token 无法解析或不完整
	ErrInvalidToken = types.ErrInvalidToken
)

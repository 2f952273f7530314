package connector

import (
	"errors"

	"github.com/simstream/go-simstream/internal/core/wire"
)

var (
	// ErrConnect 拨号或握手失败
	ErrConnect = errors.New("connector connect failed")

	// ErrRead 读失败或服务端断开
	ErrRead = errors.New("connector read failed")

	// ErrClosed 连接已关闭
	ErrClosed = errors.New("connector closed")

	// ErrFrameTooLarge 数据帧超过 MaxMessageSize
	ErrFrameTooLarge = wire.ErrFrameTooLarge
)

package dispatcher

import "errors"

var (
	// ErrUnknownStream 流不存在或已注销
	ErrUnknownStream = errors.New("unknown stream")

	// ErrStreamIDExhausted StreamID 空间耗尽
	ErrStreamIDExhausted = errors.New("stream id space exhausted")

	// ErrClosed Dispatcher 已关闭
	ErrClosed = errors.New("dispatcher closed")
)

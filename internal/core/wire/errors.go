package wire

import "errors"

var (
	// ErrHandshake 握手帧不完整
	ErrHandshake = errors.New("handshake failed")

	// ErrFrameTooLarge 数据帧长度超过上限
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrShortFrame 数据帧不完整
	ErrShortFrame = errors.New("short frame")
)

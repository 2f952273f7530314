package types

import "errors"

var (
	// ErrInvalidToken Token 无法解析或不完整
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidTokenLength Token 二进制长度错误
	ErrInvalidTokenLength = errors.New("invalid token length: must be 24 bytes")

	// ErrUnsupportedProtocol Token 使用了不支持的传输协议
	ErrUnsupportedProtocol = errors.New("unsupported token protocol: only tcp tokens are supported")
)

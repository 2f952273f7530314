package multiplexer

import "errors"

var (
	// ErrClosed Multiplexer 已关闭
	ErrClosed = errors.New("multiplexer closed")

	// ErrAlreadySubscribed 同一 Token 已有订阅
	ErrAlreadySubscribed = errors.New("token already subscribed")
)

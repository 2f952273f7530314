package acceptor

import "errors"

var (
	// ErrAccept 接受连接失败
	ErrAccept = errors.New("accept failed")

	// ErrNotListening 尚未调用 Listen
	ErrNotListening = errors.New("acceptor not listening")

	// ErrAcceptorClosed Acceptor 已关闭
	ErrAcceptorClosed = errors.New("acceptor closed")
)

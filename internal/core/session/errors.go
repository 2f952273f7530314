package session

import "errors"

var (
	// ErrTimeout 会话空闲超时
	ErrTimeout = errors.New("session idle timeout")

	// ErrWrite 写数据帧失败
	ErrWrite = errors.New("session write failed")

	// ErrRead 读失败或对端断开
	ErrRead = errors.New("session read failed")

	// ErrClosed 会话已关闭
	ErrClosed = errors.New("session closed")
)

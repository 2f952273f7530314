package interfaces

// CloseReason 会话或连接关闭原因，用作指标标签
type CloseReason string

const (
	// CloseExplicit 主动关闭（取消订阅、流关闭、服务关闭）
	CloseExplicit CloseReason = "explicit"
	// CloseTimeout 空闲超时
	CloseTimeout CloseReason = "timeout"
	// CloseWriteError 写失败
	CloseWriteError CloseReason = "write_error"
	// CloseReadError 读失败或对端断开
	CloseReadError CloseReason = "read_error"
	// CloseProtocolError 帧格式错误
	CloseProtocolError CloseReason = "protocol_error"
)

// Reporter 传输层指标上报接口
//
// 所有方法都必须并发安全且不阻塞。
type Reporter interface {
	// StreamOpened 新流注册
	StreamOpened()
	// StreamClosed 流注销
	StreamClosed()

	// SessionOpened 会话握手成功并绑定到流
	SessionOpened()
	// SessionClosed 会话关闭
	SessionClosed(reason CloseReason)
	// HandshakeRejected 握手失败或流不存在
	HandshakeRejected(reason string)
	// AcceptError 接受连接失败
	AcceptError()

	// FrameSent 数据帧写出成功
	FrameSent(bytes int)
	// FrameDropped 写入时上一帧仍在发送，异步模式下丢弃
	FrameDropped()

	// FrameReceived 消费端收到数据帧
	FrameReceived(bytes int)
	// ConnectorClosed 消费端连接关闭
	ConnectorClosed(reason CloseReason)
}

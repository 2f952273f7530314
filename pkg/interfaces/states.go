package interfaces

// SessionState 服务端会话状态
//
//	Handshaking → Open → Closing → Closed
type SessionState int32

const (
	// SessionHandshaking 等待握手帧
	SessionHandshaking SessionState = iota
	// SessionOpen 已绑定流，可以写入
	SessionOpen
	// SessionClosing 正在关闭
	SessionClosing
	// SessionClosed 已关闭（终态）
	SessionClosed
)

// String 返回状态名称
func (s SessionState) String() string {
	switch s {
	case SessionHandshaking:
		return "handshaking"
	case SessionOpen:
		return "open"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectorState 客户端连接状态
//
//	Connecting → Subscribed → Closed
type ConnectorState int32

const (
	// ConnectorConnecting 正在拨号或握手
	ConnectorConnecting ConnectorState = iota
	// ConnectorSubscribed 握手完成，正在读取数据帧
	ConnectorSubscribed
	// ConnectorClosed 已关闭（终态）
	ConnectorClosed
)

// String 返回状态名称
func (s ConnectorState) String() string {
	switch s {
	case ConnectorConnecting:
		return "connecting"
	case ConnectorSubscribed:
		return "subscribed"
	case ConnectorClosed:
		return "closed"
	default:
		return "unknown"
	}
}

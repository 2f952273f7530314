// Package session 实现服务端订阅会话
//
// 一个 Session 对应一个已接受的 TCP 连接：
//
//	Handshaking ──Open()──▶ Open ──Close()/超时/读写错误──▶ Closing ──▶ Closed
//	     │                                                              ▲
//	     └──────────────Close()（未知流、握手失败）──────────────────────┘
//
// 写入策略：每个会话最多一帧在发送中。
//   - Write（异步模式）：上一帧未写完时直接丢弃新帧
//   - WriteSync（同步模式）：阻塞直到上一帧写完或会话关闭
//
// 空闲超时：每次成功交接写入或读到数据时重置，到期后以 ErrTimeout 关闭。
// OnClosed 回调仅对进入过 Open 状态的会话触发，且只触发一次。
package session

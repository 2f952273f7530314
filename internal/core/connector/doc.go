// Package connector 实现客户端单个订阅连接
//
// 状态机：
//
//	Connecting ──握手写出──▶ Subscribed ──读错误/帧过大/Close──▶ Closed
//	     └──────────────拨号或握手失败──────────────────────────────┘
//
// 读循环依次读取帧头与负载，把回调投递到本连接的 Strand 并等待其完成后
// 再读下一帧：回调按到达顺序串行执行，慢回调通过 TCP 反压传导给服务端。
//
// 任何错误都会关闭连接并触发 OnClosed，本包不做重连。
// Close 幂等，可以在回调内部调用；Close 返回后不会再开始新的回调。
package connector

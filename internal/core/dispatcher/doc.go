// Package dispatcher 实现服务端流注册表
//
// Dispatcher 是 StreamID → 流状态的唯一权威：
//
//   - MakeStream 分配新的 StreamID 并签发 Token
//   - Lookup 在握手阶段校验 StreamID
//   - RegisterSession / DeregisterSession 维护每个流的订阅会话集合
//   - CloseStream 注销流并关闭其全部会话
//
// 订阅会话集合以写时复制的快照发布，扇出时无锁读取。
// 异步模式下 Stream.Write 把扇出任务投递到该流的 Strand，生产者从不阻塞；
// 同步模式下在调用方 goroutine 上逐个会话等待写入。
//
// 流之间严格隔离：会话只会收到握手时声明的流上写入的数据。
package dispatcher

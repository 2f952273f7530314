// Package acceptor 实现服务端 TCP 接入
//
// Acceptor 持有监听 socket，运行常驻 accept 循环：
//
//  1. Accept 成功后立即把连接交给独立 goroutine，循环马上进入下一次 Accept，
//     握手与投递不会占用 accept 能力
//  2. 在超时内读取 4 字节握手帧
//  3. 流存在：打开会话并绑定到 Dispatcher；流不存在：关闭连接，不创建会话，不触发回调
//
// 临时性 accept 错误（文件描述符耗尽等）通过 go-temp-err-catcher 退避重试，
// 其他错误记录后继续，直到 Acceptor 关闭。
package acceptor

// Package multiplexer 管理客户端的多个订阅
//
// Multiplexer 以 Token 为键持有 Connector，所有 Connector 共享一个调度器：
//
//	m := multiplexer.New(cfg, sched, nil)
//	m.AsyncRun(2)
//	defer m.Stop()
//
//	err := m.Subscribe(ctx, token, func(buf types.Buffer) { ... })
//	...
//	m.Unsubscribe(token)
//
// 默认不重连：连接因传输错误关闭后订阅即被移除。
// ReconnectInterval > 0 时，已建立的订阅在传输错误后按间隔重新拨号，
// 全部订阅共享一个 rate.Limiter 以免服务端重启时集中重连。
// 首次 Subscribe 拨号失败直接返回错误，不进入重连。
package multiplexer

// Package scheduler 提供传输层共享的任务调度器
//
// Scheduler 是一个有界任务队列加 N 个工作 goroutine：
//
//   - Run(ctx) 在调用方 goroutine 上运行一个 worker，直到 ctx 取消或 Stop
//   - AsyncRun(n) 在后台启动 n 个 worker
//   - Post 线程安全，运行前提交的任务会被保留，启动后执行
//
// Strand 在 Scheduler 之上提供串行执行：同一个 Strand 的任务按提交顺序
// 依次执行且互不重叠，不同 Strand 的任务可以并发执行。
// 服务端每个流使用一个 Strand 串行化会话增删与扇出，
// 客户端每个订阅使用一个 Strand 串行化回调。
//
// 任务中的 panic 会被捕获并记录，不会导致 worker 退出。
package scheduler

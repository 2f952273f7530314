// Package interfaces 定义 simstream 的公共接口
//
//   - streams.go  - 生产端 Stream / StreamServer，消费端 StreamClient
//   - states.go   - Session 与 Connector 的状态枚举
//   - metrics.go  - 传输层指标上报接口
//
// 实现位于 internal/core 下，一个接口文件对应一组实现目录。
package interfaces

// Package metrics 提供传输层监控指标
//
// 基于 Prometheus client_golang 实现 interfaces.Reporter：
//
//	simstream_streams                      当前注册的流数量
//	simstream_sessions                     当前打开的会话数量
//	simstream_sessions_closed_total{reason} 按原因统计的会话关闭次数
//	simstream_handshake_rejected_total{reason}
//	simstream_accept_errors_total
//	simstream_frames_sent_total / simstream_sent_bytes_total
//	simstream_frames_dropped_total         异步模式下因上一帧未写完而丢弃的帧
//	simstream_frames_received_total / simstream_received_bytes_total
//	simstream_connectors_closed_total{reason}
//
// 未启用指标时由 Noop 实现代替，调用方无需判空。
//
// # Fx 模块
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    metrics.Module(),
//	    fx.Invoke(func(r interfaces.Reporter) { ... }),
//	)
package metrics

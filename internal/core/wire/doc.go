// Package wire 实现流传输的线上格式
//
// 握手帧（客户端 → 服务端，仅一次）：
//
//	+----------------------+
//	| stream_id u32 (LE)   |
//	+----------------------+
//
// 数据帧（服务端 → 客户端，重复）：
//
//	+----------------------+------------------+
//	| length u32 (LE)      | payload [length] |
//	+----------------------+------------------+
//
// 握手帧没有长度前缀，数据帧有，两者不对称。
// 长度为 0 的数据帧合法。
package wire

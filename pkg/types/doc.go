// Package types 定义 simstream 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是值类型，可以在各模块以及进程之间自由复制。
//
// # 文件组织
//
//   - streamid.go - StreamID
//   - token.go    - Token 及其 24 字节二进制格式、Base58 文本格式
//   - buffer.go   - Buffer 不可变负载
//   - errors.go   - 公共错误定义
//
// # Token 二进制格式
//
// 与握手帧一样使用小端序，固定 24 字节：
//
//	 0               4       6   7   8                              24
//	+---------------+-------+---+---+-------------------------------+
//	|   stream_id   | port  | p | a |        address (16 bytes)     |
//	+---------------+-------+---+---+-------------------------------+
//
//	p: 协议，1 = tcp
//	a: 地址类型，1 = IPv4（占用前 4 字节），2 = IPv6
package types

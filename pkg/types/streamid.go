package types

import (
	"encoding/binary"
	"strconv"
)

// StreamID 流标识
//
// 由 Dispatcher 单调递增分配，在同一个 Dispatcher 生命周期内不会重复。
// 线上以 4 字节小端序传输。
type StreamID uint32

// StreamIDSize 握手帧大小
const StreamIDSize = 4

// String 返回十进制表示
func (id StreamID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// AppendBinary 以小端序追加到 b
func (id StreamID) AppendBinary(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(id))
}

// StreamIDFromBytes 从 4 字节小端序解析
func StreamIDFromBytes(b []byte) StreamID {
	return StreamID(binary.LittleEndian.Uint32(b))
}

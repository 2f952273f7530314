package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/simstream/go-simstream/pkg/types"
)

// HeaderSize 数据帧头长度
const HeaderSize = 4

// ============================================================================
//                              握手帧
// ============================================================================

// WriteHandshake 写出 4 字节握手帧
func WriteHandshake(w io.Writer, id types.StreamID) error {
	var b [types.StreamIDSize]byte
	binary.LittleEndian.PutUint32(b[:], uint32(id))
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("写握手帧失败: %w", err)
	}
	return nil
}

// ReadHandshake 读取 4 字节握手帧
//
// 不足 4 字节（对端关闭、重置、超时）时返回包装了 ErrHandshake 的错误。
func ReadHandshake(r io.Reader) (types.StreamID, error) {
	var b [types.StreamIDSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	return types.StreamIDFromBytes(b[:]), nil
}

// ============================================================================
//                              数据帧
// ============================================================================

// Header 编码 payload 长度为 4 字节帧头
func Header(n int) [HeaderSize]byte {
	var h [HeaderSize]byte
	binary.LittleEndian.PutUint32(h[:], uint32(n))
	return h
}

// WriteFrame 以一次聚合写写出帧头与负载
//
// w 为 net.Conn 时使用 writev，帧头与负载不会被拆成两个 TCP 段。
func WriteFrame(w io.Writer, payload []byte) (int64, error) {
	h := Header(len(payload))
	bufs := net.Buffers{h[:], payload}
	n, err := bufs.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("写数据帧失败: %w", err)
	}
	return n, nil
}

// ReadFrame 读取一个完整数据帧并返回负载
//
// max 为 0 表示不限制。长度超过 max 时返回 ErrFrameTooLarge 且不读取负载。
// 帧头读到一半或负载不完整时返回 ErrShortFrame；帧边界处的 EOF 原样返回 io.EOF。
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	var h [HeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: 帧头不完整", ErrShortFrame)
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(h[:])
	if max > 0 && size > max {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, max)
	}
	if size == 0 {
		return []byte{}, nil
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: 负载 %d 字节不完整", ErrShortFrame, size)
		}
		return nil, err
	}
	return payload, nil
}

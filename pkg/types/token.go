package types

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/mr-tron/base58"
)

// TokenSize Token 二进制编码长度
const TokenSize = 24

const (
	protocolNotSet byte = 0
	protocolTCP    byte = 1

	addressNotSet byte = 0
	addressV4     byte = 1
	addressV6     byte = 2
)

// Token 标识一个生产者端点：网络地址 + 流 ID
//
// Token 是查找键而不是句柄，不携带任何所有权语义。
// 可以直接使用 == 比较，也可以作为 map 的键。
type Token struct {
	addr     netip.Addr
	port     uint16
	streamID StreamID
}

// NewToken 创建 Token
func NewToken(addr netip.Addr, port uint16, id StreamID) Token {
	return Token{addr: addr.Unmap(), port: port, streamID: id}
}

// TokenFromAddrPort 从 netip.AddrPort 创建 Token
func TokenFromAddrPort(ap netip.AddrPort, id StreamID) Token {
	return NewToken(ap.Addr(), ap.Port(), id)
}

// Address 返回地址
func (t Token) Address() netip.Addr { return t.addr }

// Port 返回端口
func (t Token) Port() uint16 { return t.port }

// StreamID 返回流 ID
func (t Token) StreamID() StreamID { return t.streamID }

// WithStreamID 返回替换了流 ID 的副本
func (t Token) WithStreamID(id StreamID) Token {
	t.streamID = id
	return t
}

// IsValid 检查 Token 是否可用于连接
func (t Token) IsValid() bool {
	return t.addr.IsValid()
}

// AddrPort 返回拨号地址
func (t Token) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(t.addr, t.port)
}

// DialString 返回 net.Dial 使用的地址字符串
func (t Token) DialString() string {
	return net.JoinHostPort(t.addr.String(), strconv.Itoa(int(t.port)))
}

// MarshalBinary 编码为固定 24 字节
func (t Token) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(make([]byte, 0, TokenSize)), nil
}

// AppendBinary 将 24 字节编码追加到 b
func (t Token) AppendBinary(b []byte) []byte {
	b = t.streamID.AppendBinary(b)
	b = binary.LittleEndian.AppendUint16(b, t.port)

	var addr [16]byte
	addrType := addressNotSet
	switch {
	case t.addr.Is4():
		addrType = addressV4
		v4 := t.addr.As4()
		copy(addr[:], v4[:])
	case t.addr.Is6():
		addrType = addressV6
		addr = t.addr.As16()
	}

	proto := protocolNotSet
	if addrType != addressNotSet {
		proto = protocolTCP
	}
	b = append(b, proto, addrType)
	return append(b, addr[:]...)
}

// UnmarshalBinary 从 24 字节解码
func (t *Token) UnmarshalBinary(data []byte) error {
	if len(data) != TokenSize {
		return ErrInvalidTokenLength
	}

	tok := Token{
		streamID: StreamIDFromBytes(data[0:4]),
		port:     binary.LittleEndian.Uint16(data[4:6]),
	}

	proto, addrType := data[6], data[7]
	switch addrType {
	case addressNotSet:
	case addressV4:
		tok.addr = netip.AddrFrom4([4]byte(data[8:12]))
	case addressV6:
		tok.addr = netip.AddrFrom16([16]byte(data[8:24]))
	default:
		return fmt.Errorf("%w: 未知地址类型 %d", ErrInvalidToken, addrType)
	}

	switch proto {
	case protocolTCP:
	case protocolNotSet:
		if tok.addr.IsValid() {
			return fmt.Errorf("%w: 地址已设置但协议为空", ErrInvalidToken)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedProtocol, proto)
	}

	*t = tok
	return nil
}

// String 返回 Base58 文本形式，便于在控制面协议或命令行中传递
func (t Token) String() string {
	b, _ := t.MarshalBinary()
	return base58.Encode(b)
}

// MarshalText 实现 encoding.TextMarshaler
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *Token) UnmarshalText(text []byte) error {
	parsed, err := ParseToken(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseToken 解析 Base58 文本形式
func ParseToken(s string) (Token, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var t Token
	if err := t.UnmarshalBinary(raw); err != nil {
		return Token{}, err
	}
	return t, nil
}

// Describe 返回便于日志阅读的形式，例如 "127.0.0.1:2000#7"
func (t Token) Describe() string {
	return t.DialString() + "#" + t.streamID.String()
}

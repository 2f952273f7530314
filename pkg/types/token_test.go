package types

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToken_BinaryLayout(t *testing.T) {
	tok := NewToken(netip.MustParseAddr("10.1.2.3"), 2000, 7)

	raw, err := tok.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, TokenSize)

	assert.Equal(t, []byte{7, 0, 0, 0}, raw[0:4], "stream id 小端序")
	assert.Equal(t, []byte{0xd0, 0x07}, raw[4:6], "port 小端序")
	assert.Equal(t, protocolTCP, raw[6])
	assert.Equal(t, addressV4, raw[7])
	assert.Equal(t, []byte{10, 1, 2, 3}, raw[8:12])
	assert.Equal(t, make([]byte, 12), raw[12:])
}

func TestToken_Unmapped(t *testing.T) {
	tok := NewToken(netip.MustParseAddr("::ffff:127.0.0.1"), 1, 1)
	assert.True(t, tok.Address().Is4())
}

func TestToken_Comparable(t *testing.T) {
	a := NewToken(netip.MustParseAddr("127.0.0.1"), 2000, 1)
	b := NewToken(netip.MustParseAddr("127.0.0.1"), 2000, 1)
	c := a.WithStreamID(2)

	assert.True(t, a == b)
	assert.False(t, a == c)

	m := map[Token]int{a: 1}
	assert.Equal(t, 1, m[b])
}

func TestToken_IsValid(t *testing.T) {
	assert.False(t, Token{}.IsValid())
	assert.True(t, NewToken(netip.IPv6Loopback(), 0, 0).IsValid())
}

func TestToken_UnmarshalErrors(t *testing.T) {
	var tok Token

	assert.ErrorIs(t, tok.UnmarshalBinary(make([]byte, 5)), ErrInvalidTokenLength)

	raw, _ := NewToken(netip.MustParseAddr("127.0.0.1"), 1, 1).MarshalBinary()

	bad := append([]byte(nil), raw...)
	bad[6] = 2 // udp
	assert.ErrorIs(t, tok.UnmarshalBinary(bad), ErrUnsupportedProtocol)

	bad = append([]byte(nil), raw...)
	bad[7] = 9
	assert.ErrorIs(t, tok.UnmarshalBinary(bad), ErrInvalidToken)

	bad = append([]byte(nil), raw...)
	bad[6] = protocolNotSet
	assert.ErrorIs(t, tok.UnmarshalBinary(bad), ErrInvalidToken)
}

func TestParseToken_Invalid(t *testing.T) {
	_, err := ParseToken("0OIl")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("abc")
	assert.ErrorIs(t, err, ErrInvalidTokenLength)
}

func TestToken_TextRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var addr netip.Addr
		if rapid.Bool().Draw(t, "v6") {
			addr = netip.AddrFrom16([16]byte(rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "a16")))
			if addr.Is4In6() {
				addr = addr.Unmap()
			}
		} else {
			addr = netip.AddrFrom4([4]byte(rapid.SliceOfN(rapid.Byte(), 4, 4).Draw(t, "a4")))
		}
		tok := NewToken(addr, rapid.Uint16().Draw(t, "port"), StreamID(rapid.Uint32().Draw(t, "id")))

		parsed, err := ParseToken(tok.String())
		if err != nil {
			t.Fatalf("ParseToken(%q): %v", tok.String(), err)
		}
		if parsed != tok {
			t.Fatalf("round trip mismatch: %v != %v", parsed.Describe(), tok.Describe())
		}
	})
}

func TestToken_Describe(t *testing.T) {
	tok := NewToken(netip.MustParseAddr("::1"), 80, 3)
	assert.Equal(t, "[::1]:80#3", tok.Describe())
}

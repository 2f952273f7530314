package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBuffer_Copies(t *testing.T) {
	src := []byte("hello")
	buf := NewBuffer(src)
	src[0] = 'j'

	assert.Equal(t, "hello", buf.String())
	assert.Equal(t, 5, buf.Len())
}

func TestWrapBuffer_NoCopy(t *testing.T) {
	src := []byte("hello")
	buf := WrapBuffer(src)

	assert.Same(t, &src[0], &buf.Bytes()[0])
}

func TestBuffer_Empty(t *testing.T) {
	assert.True(t, Buffer{}.IsEmpty())
	assert.True(t, NewBuffer(nil).IsEmpty())
	assert.Equal(t, 0, NewBuffer([]byte{}).Len())
	assert.False(t, BufferFromString("x").IsEmpty())
}

func TestStreamID_Binary(t *testing.T) {
	id := StreamID(0x01020304)
	b := id.AppendBinary(nil)

	assert.Equal(t, []byte{4, 3, 2, 1}, b)
	assert.Equal(t, id, StreamIDFromBytes(b))
	assert.Equal(t, "16909060", id.String())
}

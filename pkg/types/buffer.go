package types

// Buffer 不可变的字节负载
//
// 同一个 Buffer 可以同时被多个发送操作和回调持有而无需复制，
// 其生命周期由垃圾回收器按最长的持有者决定。
// 调用方不得修改 Bytes 返回的切片。
type Buffer struct {
	data []byte
}

// NewBuffer 复制 data 创建 Buffer
func NewBuffer(data []byte) Buffer {
	if len(data) == 0 {
		return Buffer{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return Buffer{data: cp}
}

// WrapBuffer 接管 data 的所有权创建 Buffer，不复制
//
// 调用后调用方不得再修改 data。
func WrapBuffer(data []byte) Buffer {
	return Buffer{data: data}
}

// BufferFromString 从字符串创建 Buffer
func BufferFromString(s string) Buffer {
	return Buffer{data: []byte(s)}
}

// Bytes 返回只读的底层字节
func (b Buffer) Bytes() []byte { return b.data }

// Len 返回负载长度
func (b Buffer) Len() int { return len(b.data) }

// IsEmpty 是否为零长度负载
func (b Buffer) IsEmpty() bool { return len(b.data) == 0 }

// String 以字符串形式返回负载
func (b Buffer) String() string { return string(b.data) }

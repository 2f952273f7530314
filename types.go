package simstream

import (
	"github.com/simstream/go-simstream/pkg/interfaces"
	"github.com/simstream/go-simstream/pkg/types"
)

// 常用类型别名
type (
	// Token 订阅凭据：服务端地址 + 流 ID
	Token = types.Token

	// StreamID 流标识
	StreamID = types.StreamID

	// Buffer 不可变负载
	Buffer = types.Buffer

	// Stream 生产端句柄
	Stream = interfaces.Stream

	// BufferHandler 消费端回调
	BufferHandler = interfaces.BufferHandler
)

// NewBuffer 复制 data 创建 Buffer
func NewBuffer(data []byte) Buffer { return types.NewBuffer(data) }

// WrapBuffer 不复制地接管 data
func WrapBuffer(data []byte) Buffer { return types.WrapBuffer(data) }

// BufferFromString 由字符串创建 Buffer
func BufferFromString(s string) Buffer { return types.BufferFromString(s) }

// ParseToken 解析 Token 的文本形式
func ParseToken(s string) (Token, error) { return types.ParseToken(s) }

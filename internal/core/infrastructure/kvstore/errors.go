// Package kvstore provides the Redis-backed and in-memory key-value clients.
package kvstore

import (
	"errors"
	"fmt"
)

var (
	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("kvstore client closed")

	// ErrUnsupportedCommand 服务端不支持该命令
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrWrongType 键的数据类型与操作不符
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrBackend 后端访问失败
	ErrBackend = errors.New("kvstore backend error")
)

// WrapBackendError 包装后端访问失败
func WrapBackendError(op string, err error) error {
	return fmt.Errorf("%w: op=%s: %w", ErrBackend, op, err)
}

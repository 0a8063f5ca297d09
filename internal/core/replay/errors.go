// Package replay implements the anti-replay challenge and nonce stores.
package replay

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkid/pkg/types"
)

var (
	// ErrInvalidNonce nonce 为空或超长
	ErrInvalidNonce = fmt.Errorf("%w: invalid nonce", types.ErrValidation)

	// ErrInvalidTTL ttl 非正
	ErrInvalidTTL = fmt.Errorf("%w: ttl must be positive", types.ErrValidation)

	// ErrDuplicateChallenge 同一 nonce 已签发且未消费
	ErrDuplicateChallenge = fmt.Errorf("%w: challenge already issued", types.ErrReplay)

	// ErrUnknownStrategy 未知消费策略
	ErrUnknownStrategy = fmt.Errorf("%w: unknown consume strategy", types.ErrConfig)

	// ErrCorruptChallenge 存储中的挑战值无法解析
	ErrCorruptChallenge = errors.New("corrupt challenge record")
)

// WrapInvalidNonceError 包装 nonce 错误
func WrapInvalidNonceError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidNonce, reason)
}

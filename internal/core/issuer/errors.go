// Package issuer provides issuer trust registries for signed credential proofs.
package issuer

import (
	"fmt"

	"github.com/weisyn/zkid/pkg/types"
)

var (
	// ErrInvalidIssuer 发行方记录不完整
	ErrInvalidIssuer = fmt.Errorf("%w: invalid issuer record", types.ErrValidation)

	// ErrCorruptRecord 存储中的记录无法解析
	ErrCorruptRecord = fmt.Errorf("%w: corrupt issuer record", types.ErrTrust)
)

// WrapInvalidIssuerError 包装发行方记录错误
func WrapInvalidIssuerError(name, reason string) error {
	return fmt.Errorf("%w: name=%q: %s", ErrInvalidIssuer, name, reason)
}

// Package accumulator implements the dynamic Merkle revocation accumulator.
package accumulator

import (
	"fmt"

	"github.com/weisyn/zkid/pkg/types"
)

// ============================================================================
//                            累加器错误定义
// ============================================================================

var (
	// ErrInvalidDepth 树深度不在 [MinDepth, MaxDepth]
	ErrInvalidDepth = fmt.Errorf("%w: invalid tree depth", types.ErrConfig)

	// ErrTreeFull 树已满
	ErrTreeFull = fmt.Errorf("%w: tree is full", types.ErrCapacity)

	// ErrInvalidCommitment 承诺不是合法的非零域元素
	ErrInvalidCommitment = fmt.Errorf("%w: invalid commitment", types.ErrValidation)

	// ErrInvalidSnapshot 快照结构非法
	ErrInvalidSnapshot = fmt.Errorf("%w: invalid snapshot", types.ErrValidation)

	// ErrSnapshotRootMismatch 快照恢复后的根与快照记录不一致
	ErrSnapshotRootMismatch = fmt.Errorf("%w: snapshot root mismatch", types.ErrValidation)

	// ErrStaleSnapshot 快照版本低于当前版本
	ErrStaleSnapshot = fmt.Errorf("%w: stale snapshot", types.ErrValidation)

	// ErrStoreDepthMismatch 持久化存储的深度与配置不一致
	ErrStoreDepthMismatch = fmt.Errorf("%w: node store depth mismatch", types.ErrConfig)
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapInvalidDepthError 包装深度错误
func WrapInvalidDepthError(depth int) error {
	return fmt.Errorf("%w: depth=%d, allowed=[%d,%d]", ErrInvalidDepth, depth, MinDepth, MaxDepth)
}

// WrapInvalidCommitmentError 包装承诺错误
func WrapInvalidCommitmentError(commitment string, cause error) error {
	return fmt.Errorf("%w: commitment=%q, cause=%v", ErrInvalidCommitment, commitment, cause)
}

// WrapStoreError 包装节点存储错误
func WrapStoreError(op string, err error) error {
	return fmt.Errorf("node store %s failed: %w", op, err)
}

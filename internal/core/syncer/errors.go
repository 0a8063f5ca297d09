// Package syncer propagates accumulator changes between verifier nodes.
package syncer

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkid/pkg/types"
)

var (
	// ErrChannelClosed 通道已关闭
	ErrChannelClosed = errors.New("sync channel closed")

	// ErrPublishFailed 本地变更已生效但通知发布失败
	ErrPublishFailed = errors.New("sync publish failed")

	// ErrUnknownTransport 未知同步传输
	ErrUnknownTransport = fmt.Errorf("%w: unknown sync transport", types.ErrConfig)

	// ErrSnapshotConflict 共享快照已被其它写者推进
	ErrSnapshotConflict = errors.New("accumulator snapshot conflict")

	// ErrCorruptSnapshot 共享存储中的快照无法解析
	ErrCorruptSnapshot = fmt.Errorf("%w: corrupt accumulator snapshot", types.ErrValidation)
)

// WrapPublishError 包装发布失败
func WrapPublishError(version uint64, err error) error {
	return fmt.Errorf("%w: version=%d: %v", ErrPublishFailed, version, err)
}

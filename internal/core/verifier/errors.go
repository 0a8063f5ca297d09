// Package verifier implements the verification orchestrator that composes
// replay protection, revocation, issuer trust and the proving system.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weisyn/zkid/pkg/types"
)

// ============================================================================
//                              验证错误分类
// ============================================================================

// ErrorKind 验证失败类别
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindReplay          ErrorKind = "replay"
	KindRevocation      ErrorKind = "revocation"
	KindTrust           ErrorKind = "trust"
	KindCapacity        ErrorKind = "capacity"
	KindProtocolVersion ErrorKind = "protocol_version"
	KindProvingSystem   ErrorKind = "proving_system"
	KindRateLimited     ErrorKind = "rate_limited"
	KindConfig          ErrorKind = "config"

	// KindInternal 后端存储故障，按失败关闭处理
	KindInternal ErrorKind = "internal"
)

// GenericFailureMessage verboseErrors 关闭时对外返回的统一消息
const GenericFailureMessage = "verification failed"

// ErrInternal 存储或依赖组件故障
var ErrInternal = errors.New("internal error")

// sentinel 返回类别对应的哨兵错误
func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return types.ErrValidation
	case KindReplay:
		return types.ErrReplay
	case KindRevocation:
		return types.ErrRevocation
	case KindTrust:
		return types.ErrTrust
	case KindCapacity:
		return types.ErrCapacity
	case KindProtocolVersion:
		return types.ErrProtocolVersion
	case KindProvingSystem:
		return types.ErrProvingSystem
	case KindRateLimited:
		return types.ErrRateLimited
	case KindConfig:
		return types.ErrConfig
	}
	return ErrInternal
}

// Sensitive 该类别是否会泄露凭证状态（重放/吊销/信任）
func (k ErrorKind) Sensitive() bool {
	return k == KindReplay || k == KindRevocation || k == KindTrust
}

// Public 该类别的具体原因是否总是可以对外返回
func (k ErrorKind) Public() bool {
	return k == KindValidation || k == KindProtocolVersion || k == KindRateLimited
}

// VerificationError 带类别的验证错误
//
// errors.Is(err, types.ErrReplay) 等按类别匹配，errors.As 取出 Kind 与 Reason。
type VerificationError struct {
	Kind   ErrorKind
	Reason string
	Err    error

	// RetryAfter 仅限流错误有效
	RetryAfter time.Duration
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap 返回底层原因
func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is 按类别匹配哨兵错误
func (e *VerificationError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind ErrorKind, format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// classify 将组件错误归入验证错误类别，无法识别的按 fallback 处理
func classify(err error, fallback ErrorKind) *VerificationError {
	if err == nil {
		return nil
	}
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve
	}
	kind := fallback
	for _, k := range []ErrorKind{
		KindValidation, KindReplay, KindRevocation, KindTrust, KindCapacity,
		KindProtocolVersion, KindProvingSystem, KindRateLimited, KindConfig,
	} {
		if errors.Is(err, k.sentinel()) {
			kind = k
			break
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindInternal
	}
	return &VerificationError{Kind: kind, Reason: err.Error(), Err: err}
}

// KindOf 返回错误的验证类别；nil 返回空串
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return classify(err, KindInternal).Kind
}

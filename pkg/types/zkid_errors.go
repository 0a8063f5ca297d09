package types

import "errors"

// 验证核心的错误类别，各组件用 fmt.Errorf("%w: ...") 在其上包装具体原因，
// 调用方通过 errors.Is 判定类别。
var (
	ErrValidation      = errors.New("validation error")
	ErrCapacity        = errors.New("capacity error")
	ErrConfig          = errors.New("config error")
	ErrReplay          = errors.New("replay error")
	ErrRevocation      = errors.New("revocation error")
	ErrTrust           = errors.New("trust error")
	ErrProtocolVersion = errors.New("protocol version error")
	ErrProvingSystem   = errors.New("proving system error")
	ErrRateLimited     = errors.New("rate limited")
)

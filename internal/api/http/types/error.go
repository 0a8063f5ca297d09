// Package types provides HTTP response type definitions.
package types

import zkidtypes "github.com/weisyn/zkid/pkg/types"

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code       string `json:"code"`                 // 错误码
	Message    string `json:"message"`              // 错误消息
	RetryAfter int64  `json:"retryAfter,omitempty"` // 限流时建议的重试秒数
	RequestID  string `json:"requestId,omitempty"`  // 请求ID

	// Results 多声明包的逐项结果，消息已按 verboseErrors 处理
	Results []zkidtypes.VerificationResult `json:"results,omitempty"`
}

// 错误码常量
const (
	// 请求错误码（400-499）
	ErrInvalidArgument   = "INVALID_ARGUMENT"
	ErrRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrReplayDetected    = "REPLAY_DETECTED"
	ErrPermissionDenied  = "PERMISSION_DENIED"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrUpgradeRequired   = "UPGRADE_REQUIRED"
	ErrNotFound          = "NOT_FOUND"

	// 服务器错误码（500-599）
	ErrInternal           = "INTERNAL"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// NewErrorResponse 创建错误响应
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// Package handlers implements the HTTP endpoints of the verification API.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkid/internal/api/http/middleware"
	apitypes "github.com/weisyn/zkid/internal/api/http/types"
	"github.com/weisyn/zkid/internal/core/verifier"
	"github.com/weisyn/zkid/pkg/types"
)

// Verifier 验证编排器的 HTTP 视图
type Verifier interface {
	Verify(ctx context.Context, req verifier.Request, clientID, clientVersion string) (interface{}, error)
	ProtocolVersion() string
	VerboseErrors() bool
}

// ChallengeIssuer 挑战签发
type ChallengeIssuer interface {
	IssueChallenge(ctx context.Context, ttl time.Duration) (types.ChallengeRecord, error)
}

// RootSource 累加器根与见证查询
type RootSource interface {
	GetRootInfo() types.RootInfo
	Size() int
	GetWitness(commitment string) (*types.Witness, error)
}

// 确保实现接口
var _ Verifier = (*verifier.Orchestrator)(nil)

// StatusFor 将验证错误类别映射为 HTTP 状态码与错误码
//
// verbose 关闭时重放、吊销、信任失败统一为 403，状态码不区分具体检查。
func StatusFor(kind verifier.ErrorKind, verbose bool) (int, string) {
	if !verbose && kind.Sensitive() {
		return http.StatusForbidden, apitypes.ErrPermissionDenied
	}
	switch kind {
	case verifier.KindValidation:
		return http.StatusBadRequest, apitypes.ErrInvalidArgument
	case verifier.KindReplay:
		return http.StatusConflict, apitypes.ErrReplayDetected
	case verifier.KindRevocation, verifier.KindTrust:
		return http.StatusForbidden, apitypes.ErrPermissionDenied
	case verifier.KindRateLimited:
		return http.StatusTooManyRequests, apitypes.ErrRateLimitExceeded
	case verifier.KindProtocolVersion:
		return http.StatusUpgradeRequired, apitypes.ErrUpgradeRequired
	case verifier.KindCapacity:
		return http.StatusServiceUnavailable, apitypes.ErrServiceUnavailable
	}
	return http.StatusInternalServerError, apitypes.ErrInternal
}

// writeError 写出错误响应；限流错误附带 Retry-After
func writeError(c *gin.Context, status int, code, message string, retryAfter time.Duration) {
	abortWithError(c, status, apitypes.NewErrorResponse(code, message), retryAfter)
}

func abortWithError(c *gin.Context, status int, resp *apitypes.ErrorResponse, retryAfter time.Duration) {
	resp.Error.RequestID = middleware.GetRequestID(c)
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		resp.Error.RetryAfter = secs
		c.Header("Retry-After", strconv.FormatInt(secs, 10))
	}
	c.AbortWithStatusJSON(status, resp)
}

func writeSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apitypes.NewSuccessResponse(data).WithRequestID(middleware.GetRequestID(c)))
}

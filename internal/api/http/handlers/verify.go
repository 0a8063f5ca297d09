package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkid/internal/api/http/middleware"
	apitypes "github.com/weisyn/zkid/internal/api/http/types"
	"github.com/weisyn/zkid/internal/core/verifier"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/types"
)

// VerifyHandlers 证明验证端点
type VerifyHandlers struct {
	verifier Verifier
	logger   logInterface.Logger
}

// NewVerifyHandlers 创建验证处理器
func NewVerifyHandlers(v Verifier, logger logInterface.Logger) *VerifyHandlers {
	return &VerifyHandlers{verifier: v, logger: logger}
}

// RegisterRoutes 注册验证路由
//
//	POST /verify  单声明、签名证明或多声明包，按请求体形状区分
func (h *VerifyHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify", h.Verify)
}

// Verify 验证证明
//
// 证明无效（verified=false 且无错误）返回 200；
// 其余失败按错误类别映射状态码，响应消息遵循 verboseErrors。
func (h *VerifyHandlers) Verify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, apitypes.ErrRequestTooLarge,
				"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", 0)
			return
		}
		writeError(c, http.StatusBadRequest, apitypes.ErrInvalidArgument, "failed to read request body", 0)
		return
	}

	req, err := verifier.ParseRequest(body)
	if err != nil {
		h.fail(c, nil, err)
		return
	}

	result, err := h.verifier.Verify(c.Request.Context(), req,
		middleware.GetClientID(c), middleware.GetProtocolVersion(c))
	if err != nil {
		h.fail(c, result, err)
		return
	}
	c.Header(middleware.HeaderProtocolVersion, h.verifier.ProtocolVersion())
	writeSuccess(c, http.StatusOK, result)
}

func (h *VerifyHandlers) fail(c *gin.Context, result interface{}, err error) {
	kind := verifier.KindOf(err)
	status, code := StatusFor(kind, h.verifier.VerboseErrors())

	message := publicMessage(result)
	if message == "" {
		message = verifier.GenericFailureMessage
		if h.verifier.VerboseErrors() || kind.Public() {
			message = err.Error()
		}
	}

	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Warnf("验证请求失败: status=%d kind=%s err=%v", status, kind, err)
	}
	resp := apitypes.NewErrorResponse(code, message)
	if multi, ok := result.(*types.MultiClaimResult); ok && multi != nil {
		resp.Error.Results = multi.Results
	}
	abortWithError(c, status, resp, retryAfterOf(err))
}

// publicMessage 取编排器已按 verboseErrors 处理过的消息
func publicMessage(result interface{}) string {
	switch r := result.(type) {
	case *types.VerificationResult:
		if r != nil {
			return r.Error
		}
	case *types.MultiClaimResult:
		if r != nil {
			return r.Error
		}
	}
	return ""
}

func retryAfterOf(err error) time.Duration {
	var ve *verifier.VerificationError
	if errors.As(err, &ve) {
		return ve.RetryAfter
	}
	return 0
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkid/internal/api/http/types"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// rfc3339Millis 挑战时间戳的线上格式，与证明中的毫秒时间戳一致
const rfc3339Millis = "2006-01-02T15:04:05.000Z07:00"

// ChallengeHandlers 挑战签发端点
type ChallengeHandlers struct {
	issuer ChallengeIssuer
	ttl    time.Duration
	logger logInterface.Logger
}

// NewChallengeHandlers 创建挑战处理器
func NewChallengeHandlers(issuer ChallengeIssuer, ttl time.Duration, logger logInterface.Logger) *ChallengeHandlers {
	return &ChallengeHandlers{issuer: issuer, ttl: ttl, logger: logger}
}

// RegisterRoutes 注册挑战路由
func (h *ChallengeHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/challenge", h.Issue)
}

// Issue 签发一次性挑战
//
// 客户端须将 nonce 与 requestTimestamp 原样写入证明的公开输入。
func (h *ChallengeHandlers) Issue(c *gin.Context) {
	rec, err := h.issuer.IssueChallenge(c.Request.Context(), h.ttl)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("签发挑战失败: %v", err)
		}
		writeError(c, http.StatusServiceUnavailable, apitypes.ErrServiceUnavailable, "challenge store unavailable", 0)
		return
	}
	writeSuccess(c, http.StatusCreated, apitypes.ChallengeResponse{
		Nonce:            rec.Nonce,
		RequestTimestamp: time.UnixMilli(rec.IssuedAtMs).UTC().Format(rfc3339Millis),
		ExpiresAt:        rec.ExpiresAt().UTC().Format(rfc3339Millis),
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkid/internal/api/http/types"
)

// HealthHandler 健康检查端点
type HealthHandler struct {
	startTime       time.Time
	protocolVersion string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(protocolVersion string) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), protocolVersion: protocolVersion}
}

// RegisterRoutes 注册健康检查路由
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.GetHealth)
}

// GetHealth 存活检查
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, apitypes.HealthResponse{
		Status:          "healthy",
		ProtocolVersion: h.protocolVersion,
		Uptime:          time.Since(h.startTime).Truncate(time.Second).String(),
	})
}

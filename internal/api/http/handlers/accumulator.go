package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkid/internal/api/http/types"
)

// AccumulatorHandlers 累加器只读端点
type AccumulatorHandlers struct {
	source RootSource
}

// NewAccumulatorHandlers 创建累加器处理器
func NewAccumulatorHandlers(source RootSource) *AccumulatorHandlers {
	return &AccumulatorHandlers{source: source}
}

// RegisterRoutes 注册累加器路由
//
//	GET /accumulator/root                  当前根、版本与成员数
//	GET /accumulator/witness/:commitment   成员见证，不在树中时 404
func (h *AccumulatorHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/accumulator/root", h.GetRoot)
	r.GET("/accumulator/witness/:commitment", h.GetWitness)
}

// GetRoot 返回当前根、版本与成员数，供持有者构造撤销证明
func (h *AccumulatorHandlers) GetRoot(c *gin.Context) {
	writeSuccess(c, http.StatusOK, apitypes.AccumulatorRootResponse{
		RootInfo: h.source.GetRootInfo(),
		Size:     h.source.Size(),
	})
}

// GetWitness 返回承诺的默克尔路径，附带读取后的当前版本
func (h *AccumulatorHandlers) GetWitness(c *gin.Context) {
	w, err := h.source.GetWitness(c.Param("commitment"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, apitypes.ErrInternal, "failed to build witness", 0)
		return
	}
	if w == nil {
		writeError(c, http.StatusNotFound, apitypes.ErrNotFound, "commitment not in accumulator", 0)
		return
	}
	writeSuccess(c, http.StatusOK, apitypes.WitnessResponse{
		Witness: *w,
		Version: h.source.GetRootInfo().Version,
	})
}

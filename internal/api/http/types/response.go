package types

import zkidtypes "github.com/weisyn/zkid/pkg/types"

// SuccessResponse 统一成功响应格式
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Data: data,
	}
}

// WithRequestID 添加请求ID
func (r *SuccessResponse) WithRequestID(requestID string) *SuccessResponse {
	r.RequestID = requestID
	return r
}

// ChallengeResponse 挑战签发响应
type ChallengeResponse struct {
	Nonce            string `json:"nonce"`
	RequestTimestamp string `json:"requestTimestamp"` // RFC3339 毫秒精度，客户端原样回传
	ExpiresAt        string `json:"expiresAt"`
}

// AccumulatorRootResponse 累加器根查询响应
type AccumulatorRootResponse struct {
	zkidtypes.RootInfo
	Size int `json:"size"`
}

// WitnessResponse 成员见证响应，供持有者生成撤销证明
type WitnessResponse struct {
	zkidtypes.Witness
	Version uint64 `json:"version"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status          string `json:"status"` // healthy
	ProtocolVersion string `json:"protocolVersion"`
	Uptime          string `json:"uptime"`
}

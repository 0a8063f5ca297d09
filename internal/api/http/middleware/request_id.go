// Package middleware provides gin middleware for the verification API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 请求头与上下文键
const (
	HeaderRequestID       = "X-Request-ID"
	HeaderClientID        = "X-Client-ID"
	HeaderProtocolVersion = "X-ZkId-Protocol"

	ctxRequestID = "request_id"
	ctxClientID  = "client_id"
)

// RequestID 请求ID中间件
// 为每个请求生成唯一追踪ID
type RequestID struct{}

// NewRequestID 创建请求ID中间件
func NewRequestID() *RequestID {
	return &RequestID{}
}

// Middleware 返回Gin中间件
func (m *RequestID) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// GetRequestID 从上下文获取请求ID（与 RequestID 中间件配合）
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(ctxRequestID); ok {
		if s, ok2 := v.(string); ok2 && s != "" {
			return s
		}
	}
	return c.GetHeader(HeaderRequestID)
}

// ClientIdentity 限流标识中间件
//
// 优先使用 X-Client-ID，缺省时退回对端 IP。
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderClientID)
		if id == "" {
			id = c.ClientIP()
		}
		c.Set(ctxClientID, id)
		c.Next()
	}
}

// GetClientID 获取限流标识
func GetClientID(c *gin.Context) string {
	if v, ok := c.Get(ctxClientID); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}
	return c.ClientIP()
}

// GetProtocolVersion 获取客户端声明的协议版本，未声明时为空
func GetProtocolVersion(c *gin.Context) string {
	return c.GetHeader(HeaderProtocolVersion)
}

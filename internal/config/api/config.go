// Package api 提供HTTP接入配置
package api

import (
	"time"

	"github.com/weisyn/zkid/pkg/types"
)

// APIOptions HTTP接入配置选项
type APIOptions struct {
	// 基础配置
	Enabled    bool   `json:"enabled"`     // 是否启用HTTP服务
	ListenAddr string `json:"listen_addr"` // 监听地址
	Metrics    bool   `json:"metrics"`     // 是否暴露 /metrics

	// 超时配置
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// 最大请求体大小(字节)
	MaxRequestSize int64 `json:"max_request_size"`
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置
func New(userConfig *types.UserAPIConfig) *Config {
	options := &APIOptions{
		Enabled:         defaultEnabled,
		ListenAddr:      defaultListenAddr,
		Metrics:         defaultMetrics,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
		MaxRequestSize:  defaultMaxRequestSize,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.ListenAddr != nil && *userConfig.ListenAddr != "" {
			options.ListenAddr = *userConfig.ListenAddr
		}
		if userConfig.Metrics != nil {
			options.Metrics = *userConfig.Metrics
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

// Package ratelimit 提供滑动窗口限流配置
package ratelimit

import (
	"time"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// RateLimitOptions 限流配置选项
type RateLimitOptions struct {
	Enabled bool          `json:"enabled"`
	Limit   int64         `json:"limit"`  // 窗口内允许的请求数
	Window  time.Duration `json:"window"` // 窗口长度
}

// Config 限流配置实现
type Config struct {
	options *RateLimitOptions
}

// New 创建限流配置
func New(userConfig *configtypes.UserRateLimitConfig) *Config {
	options := &RateLimitOptions{
		Enabled: defaultEnabled,
		Limit:   defaultLimit,
		Window:  defaultWindow,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.Limit != nil && *userConfig.Limit > 0 {
			options.Limit = int64(*userConfig.Limit)
		}
		if userConfig.Window != nil && *userConfig.Window > 0 {
			options.Window = time.Duration(*userConfig.Window) * time.Millisecond
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *RateLimitOptions {
	return c.options
}

package app

import (
	"github.com/weisyn/zkid/pkg/interfaces/config"
	"github.com/weisyn/zkid/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
// 实现config.AppOptions接口
type options struct {
	// 配置文件路径
	configFilePath string

	// 用户配置（优先级高于configFilePath）
	appConfig *types.AppConfig

	// API支持开关 (默认启用)
	enableAPI bool
}

// 编译时校验options是否实现了config.AppOptions接口
var _ config.AppOptions = (*options)(nil)

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithAppConfig 直接使用已解析的配置
func WithAppConfig(cfg *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = cfg
	}
}

// WithoutAPI 禁用HTTP接入模块
func WithoutAPI() Option {
	return func(o *options) {
		o.enableAPI = false
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	o := &options{enableAPI: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}

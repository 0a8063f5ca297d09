// Package accumulator 提供吊销累加器配置
package accumulator

import (
	"path/filepath"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// AccumulatorOptions 累加器配置选项
type AccumulatorOptions struct {
	Depth       int    `json:"depth"`        // 树深度 [1,20]
	Backend     string `json:"backend"`      // memory | badger
	BadgerPath  string `json:"badger_path"`  // badger 数据目录
	RootHistory int    `json:"root_history"` // 历史根环形缓冲大小
}

// Config 累加器配置实现
type Config struct {
	options *AccumulatorOptions
}

// New 创建累加器配置；dataDir 非空时 badger 路径默认位于 {dataDir}/accumulator
func New(userConfig *configtypes.UserAccumulatorConfig, dataDir string) *Config {
	options := &AccumulatorOptions{
		Depth:       defaultDepth,
		Backend:     defaultBackend,
		BadgerPath:  defaultBadgerPath,
		RootHistory: defaultRootHistory,
	}
	if dataDir != "" {
		options.BadgerPath = filepath.Join(dataDir, "accumulator")
	}
	if userConfig != nil {
		if userConfig.Depth != nil {
			// 深度合法性由累加器构造时校验（ConfigError）
			options.Depth = *userConfig.Depth
		}
		if userConfig.Backend != nil {
			options.Backend = *userConfig.Backend
		}
		if userConfig.BadgerPath != nil {
			options.BadgerPath = *userConfig.BadgerPath
		}
		if userConfig.RootHistory != nil && *userConfig.RootHistory > 0 {
			options.RootHistory = *userConfig.RootHistory
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *AccumulatorOptions {
	return c.options
}

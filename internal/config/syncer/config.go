// Package syncer 提供累加器集群同步配置
package syncer

import (
	"time"

	"github.com/google/uuid"
	configtypes "github.com/weisyn/zkid/pkg/types"
)

// SyncOptions 同步配置选项
type SyncOptions struct {
	Enabled         bool          `json:"enabled"`
	Transport       string        `json:"transport"`        // redis | local
	Channel         string        `json:"channel"`          // 发布订阅频道
	NodeID          string        `json:"node_id"`          // 节点标识
	RebuildInterval time.Duration `json:"rebuild_interval"` // 周期性重建间隔
}

// Config 同步配置实现
type Config struct {
	options *SyncOptions
}

// New 创建同步配置，未配置节点标识时生成随机 UUID
func New(userConfig *configtypes.UserSyncConfig) *Config {
	options := &SyncOptions{
		Enabled:         defaultEnabled,
		Transport:       defaultTransport,
		Channel:         defaultChannel,
		RebuildInterval: defaultRebuildInterval,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.Transport != nil && *userConfig.Transport != "" {
			options.Transport = *userConfig.Transport
		}
		if userConfig.Channel != nil && *userConfig.Channel != "" {
			options.Channel = *userConfig.Channel
		}
		if userConfig.NodeID != nil {
			options.NodeID = *userConfig.NodeID
		}
		if userConfig.RebuildInterval != nil && *userConfig.RebuildInterval > 0 {
			options.RebuildInterval = time.Duration(*userConfig.RebuildInterval) * time.Second
		}
	}
	if options.NodeID == "" {
		options.NodeID = uuid.NewString()
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *SyncOptions {
	return c.options
}

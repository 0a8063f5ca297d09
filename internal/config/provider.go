package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/weisyn/zkid/internal/config/accumulator"
	"github.com/weisyn/zkid/internal/config/api"
	"github.com/weisyn/zkid/internal/config/kvstore"
	"github.com/weisyn/zkid/internal/config/log"
	"github.com/weisyn/zkid/internal/config/ratelimit"
	"github.com/weisyn/zkid/internal/config/replay"
	"github.com/weisyn/zkid/internal/config/syncer"
	"github.com/weisyn/zkid/internal/config/verifier"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	"github.com/weisyn/zkid/pkg/types"
)

const (
	defaultAppName = "zkid-verifier"
	defaultDataDir = "./data"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig

	// 同步配置会生成随机节点标识，只解析一次
	syncOnce sync.Once
	syncOpts *syncer.SyncOptions
}

// 确保实现接口
var _ config.Provider = (*Provider)(nil)

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{appConfig: appConfig}
}

// LoadAppConfig 从 JSON 文件加载用户配置；path 为空时返回空配置（全部使用默认值）
func LoadAppConfig(path string) (*types.AppConfig, error) {
	cfg := &types.AppConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseAppConfig(data)
}

// ParseAppConfig 解析 JSON 用户配置
func ParseAppConfig(data []byte) (*types.AppConfig, error) {
	cfg := &types.AppConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: 解析配置文件失败: %v", types.ErrConfig, err)
	}
	return cfg, nil
}

// GetAppName 获取应用名称
func (p *Provider) GetAppName() string {
	if p.appConfig.AppName != nil && *p.appConfig.AppName != "" {
		return *p.appConfig.AppName
	}
	return defaultAppName
}

// GetDataDir 获取数据目录
func (p *Provider) GetDataDir() string {
	if p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		return *p.appConfig.DataDir
	}
	return defaultDataDir
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	return log.New(p.appConfig.Log).GetOptions()
}

// GetKVStore 获取键值存储配置
func (p *Provider) GetKVStore() *kvstore.KVStoreOptions {
	return kvstore.New(p.appConfig.KVStore).GetOptions()
}

// GetAccumulator 获取累加器配置
func (p *Provider) GetAccumulator() *accumulator.AccumulatorOptions {
	return accumulator.New(p.appConfig.Accumulator, p.GetDataDir()).GetOptions()
}

// GetReplay 获取防重放配置
func (p *Provider) GetReplay() *replay.ReplayOptions {
	return replay.New(p.appConfig.Replay).GetOptions()
}

// GetRateLimit 获取限流配置
func (p *Provider) GetRateLimit() *ratelimit.RateLimitOptions {
	return ratelimit.New(p.appConfig.RateLimit).GetOptions()
}

// GetSync 获取累加器同步配置
func (p *Provider) GetSync() *syncer.SyncOptions {
	p.syncOnce.Do(func() {
		p.syncOpts = syncer.New(p.appConfig.Sync).GetOptions()
	})
	return p.syncOpts
}

// GetVerifier 获取验证编排器配置
func (p *Provider) GetVerifier() *verifier.VerifierOptions {
	return verifier.New(p.appConfig.Verifier).GetOptions()
}

// GetAPI 获取HTTP接入配置
func (p *Provider) GetAPI() *api.APIOptions {
	return api.New(p.appConfig.API).GetOptions()
}

// Package config provides configuration provider interfaces.
package config

import (
	accumulatorconfig "github.com/weisyn/zkid/internal/config/accumulator"
	apiconfig "github.com/weisyn/zkid/internal/config/api"
	kvstoreconfig "github.com/weisyn/zkid/internal/config/kvstore"
	logconfig "github.com/weisyn/zkid/internal/config/log"
	ratelimitconfig "github.com/weisyn/zkid/internal/config/ratelimit"
	replayconfig "github.com/weisyn/zkid/internal/config/replay"
	syncerconfig "github.com/weisyn/zkid/internal/config/syncer"
	verifierconfig "github.com/weisyn/zkid/internal/config/verifier"
)

// Provider 配置提供者接口
type Provider interface {
	// GetAppName 获取应用名称
	GetAppName() string

	// GetDataDir 获取数据目录
	GetDataDir() string

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetKVStore 获取键值存储配置
	GetKVStore() *kvstoreconfig.KVStoreOptions

	// GetAccumulator 获取累加器配置
	GetAccumulator() *accumulatorconfig.AccumulatorOptions

	// GetReplay 获取防重放配置
	GetReplay() *replayconfig.ReplayOptions

	// GetRateLimit 获取限流配置
	GetRateLimit() *ratelimitconfig.RateLimitOptions

	// GetSync 获取累加器同步配置
	GetSync() *syncerconfig.SyncOptions

	// GetVerifier 获取验证编排器配置
	GetVerifier() *verifierconfig.VerifierOptions

	// GetAPI 获取HTTP接入配置
	GetAPI() *apiconfig.APIOptions
}

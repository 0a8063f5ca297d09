// Package kvstore 提供 Redis 键值存储配置
package kvstore

import (
	"time"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// KVStoreOptions 键值存储配置选项
type KVStoreOptions struct {
	// === 基础配置 ===
	Backend   string `json:"backend"`    // redis | memory
	Addr      string `json:"addr"`       // Redis 地址
	Password  string `json:"password"`   // Redis 密码
	DB        int    `json:"db"`         // Redis 数据库编号
	KeyPrefix string `json:"key_prefix"` // Key 前缀

	// === 连接配置 ===
	PoolSize     int           `json:"pool_size"`     // 连接池大小
	DialTimeout  time.Duration `json:"dial_timeout"`  // 连接超时
	ReadTimeout  time.Duration `json:"read_timeout"`  // 读超时
	WriteTimeout time.Duration `json:"write_timeout"` // 写超时
}

// Config 键值存储配置实现
type Config struct {
	options *KVStoreOptions
}

// New 创建键值存储配置
func New(userConfig *configtypes.UserKVStoreConfig) *Config {
	options := createDefaultKVStoreOptions()
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

func createDefaultKVStoreOptions() *KVStoreOptions {
	return &KVStoreOptions{
		Backend:      defaultBackend,
		Addr:         defaultAddr,
		DB:           defaultDB,
		KeyPrefix:    defaultKeyPrefix,
		PoolSize:     defaultPoolSize,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
}

// applyUserConfig 应用用户配置覆盖默认值
func applyUserConfig(options *KVStoreOptions, cfg *configtypes.UserKVStoreConfig) {
	if cfg.Backend != nil {
		options.Backend = *cfg.Backend
	}
	if cfg.Addr != nil {
		options.Addr = *cfg.Addr
	}
	if cfg.Password != nil {
		options.Password = *cfg.Password
	}
	if cfg.DB != nil {
		options.DB = *cfg.DB
	}
	if cfg.KeyPrefix != nil {
		options.KeyPrefix = *cfg.KeyPrefix
	}
	if cfg.PoolSize != nil && *cfg.PoolSize > 0 {
		options.PoolSize = *cfg.PoolSize
	}
	if cfg.DialTimeout != nil && *cfg.DialTimeout > 0 {
		options.DialTimeout = time.Duration(*cfg.DialTimeout) * time.Millisecond
	}
	if cfg.ReadTimeout != nil && *cfg.ReadTimeout > 0 {
		options.ReadTimeout = time.Duration(*cfg.ReadTimeout) * time.Millisecond
	}
	if cfg.WriteTimeout != nil && *cfg.WriteTimeout > 0 {
		options.WriteTimeout = time.Duration(*cfg.WriteTimeout) * time.Millisecond
	}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *KVStoreOptions {
	return c.options
}

// IsMemory 是否使用进程内存后端
func (c *Config) IsMemory() bool {
	return c.options.Backend == BackendMemory
}

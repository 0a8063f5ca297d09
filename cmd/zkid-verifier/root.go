package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkid/configs"
	"github.com/weisyn/zkid/internal/config"
	kvstoreconfig "github.com/weisyn/zkid/internal/config/kvstore"
	logconfig "github.com/weisyn/zkid/internal/config/log"
	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	configInterface "github.com/weisyn/zkid/pkg/interfaces/config"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath string // 配置文件路径
	Env        string // 内置配置环境名，未指定 --config 时生效
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zkid-verifier",
	Short: "零知识身份声明验证服务",
	Long: `zkid-verifier - 可吊销的零知识身份声明验证服务

持有者以 Groth16 证明出示 "年龄 ≥ N"、"国籍 = X" 等声明，
验证方在不获知属性本身的情况下完成校验，并结合挑战防重放、
Merkle 累加器吊销检查与发行方信任列表。`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "配置文件路径 (JSON，缺省时使用默认配置)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Env, "env", "e", "", "使用内置配置 (development|production)")
}

// loadAppConfig 按 --config、--env 的优先级读取用户配置
func loadAppConfig() (*types.AppConfig, error) {
	if globalFlags.ConfigPath != "" || globalFlags.Env == "" {
		return config.LoadAppConfig(globalFlags.ConfigPath)
	}
	data, err := configs.Get(globalFlags.Env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}
	return config.ParseAppConfig(data)
}

// loadProvider 读取并校验配置
func loadProvider() (configInterface.Provider, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	provider := config.NewProvider(cfg)
	if err := config.Validate(provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// newLogger 按配置创建日志器
func newLogger(provider configInterface.Provider) (logInterface.Logger, error) {
	return log.New(logconfig.New(provider.GetLog()))
}

// openSharedStore 连接共享 Redis；运维命令在内存后端下没有意义
func openSharedStore(ctx context.Context, provider configInterface.Provider, logger logInterface.Logger) (kvInterface.Client, error) {
	opts := provider.GetKVStore()
	if opts.Backend == kvstoreconfig.BackendMemory {
		return nil, fmt.Errorf("%w: this command requires kvstore.backend=redis", types.ErrConfig)
	}
	return kvstore.NewRedisClient(ctx, opts, logger)
}

var errMissingArgument = errors.New("missing argument")

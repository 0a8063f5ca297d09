// Package configs 嵌入各环境的示例配置
package configs

import (
	_ "embed"
	"fmt"
)

//go:embed development/config.json
var developmentConfig []byte

//go:embed production/config.json
var productionConfig []byte

// 环境名
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// GetDevelopmentConfig 单机开发配置：内存后端，详细错误
func GetDevelopmentConfig() []byte {
	return developmentConfig
}

// GetProductionConfig 集群配置：Redis 共享状态，badger 累加器，Redis 同步
func GetProductionConfig() []byte {
	return productionConfig
}

// Get 按环境名返回嵌入配置
func Get(env string) ([]byte, error) {
	switch env {
	case EnvDevelopment:
		return developmentConfig, nil
	case EnvProduction:
		return productionConfig, nil
	}
	return nil, fmt.Errorf("unknown environment %q", env)
}

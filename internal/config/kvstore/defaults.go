package kvstore

import "time"

// 后端类型
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// 键值存储默认值
const (
	defaultBackend   = BackendRedis
	defaultAddr      = "localhost:6379"
	defaultDB        = 0
	defaultKeyPrefix = "zkid:"

	// defaultPoolSize 连接池大小
	defaultPoolSize = 32

	// 超时均由 go-redis 客户端执行，调用方不再额外包装超时
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 2 * time.Second
	defaultWriteTimeout = 2 * time.Second
)

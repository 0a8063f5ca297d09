package api

import "time"

// HTTP接入默认配置值
const (
	defaultEnabled    = true
	defaultListenAddr = "0.0.0.0:8080"
	defaultMetrics    = true

	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	// defaultMaxRequestSize 证明请求体上限 1MB
	defaultMaxRequestSize = 1 << 20
)

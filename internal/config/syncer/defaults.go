package syncer

import "time"

// 传输类型
const (
	TransportRedis = "redis"
	TransportLocal = "local"
)

const (
	defaultEnabled         = false
	defaultTransport       = TransportRedis
	defaultChannel         = "zkid:accumulator:updates"
	defaultRebuildInterval = 30 * time.Second
)

// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
//
// 🔧 零值陷阱处理：所有字段使用指针类型
// - nil: 用户未设置，使用系统默认值
// - &value: 用户明确设置的值（包括零值）
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// Redis 键值存储配置（挑战/限流/吊销黑名单/同步通道共用）
	KVStore *UserKVStoreConfig `json:"kvstore,omitempty"`

	// 吊销累加器配置
	Accumulator *UserAccumulatorConfig `json:"accumulator,omitempty"`

	// 防重放配置
	Replay *UserReplayConfig `json:"replay,omitempty"`

	// 限流配置
	RateLimit *UserRateLimitConfig `json:"rate_limit,omitempty"`

	// 累加器同步配置
	Sync *UserSyncConfig `json:"sync,omitempty"`

	// 验证编排器配置
	Verifier *UserVerifierConfig `json:"verifier,omitempty"`

	// HTTP 接入配置
	API *UserAPIConfig `json:"api,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level      *string `json:"level,omitempty"`       // 日志级别：debug, info, warn, error, fatal
	Format     *string `json:"format,omitempty"`      // 控制台格式：console | json
	ToConsole  *bool   `json:"to_console,omitempty"`  // 是否输出到标准输出
	FilePath   *string `json:"file_path,omitempty"`   // 日志文件路径
	MaxSizeMB  *int    `json:"max_size_mb,omitempty"` // 单个日志文件最大大小(MB)
	MaxBackups *int    `json:"max_backups,omitempty"` // 保留的历史文件数
	MaxAgeDays *int    `json:"max_age_days,omitempty"`
}

// UserKVStoreConfig 用户键值存储配置
type UserKVStoreConfig struct {
	Backend      *string `json:"backend,omitempty"`       // redis | memory
	Addr         *string `json:"addr,omitempty"`          // Redis 地址，如 "localhost:6379"
	Password     *string `json:"password,omitempty"`      // Redis 密码
	DB           *int    `json:"db,omitempty"`            // Redis 数据库编号
	KeyPrefix    *string `json:"key_prefix,omitempty"`    // Key 前缀
	PoolSize     *int    `json:"pool_size,omitempty"`     // 连接池大小
	DialTimeout  *int    `json:"dial_timeout,omitempty"`  // 连接超时（毫秒）
	ReadTimeout  *int    `json:"read_timeout,omitempty"`  // 读超时（毫秒）
	WriteTimeout *int    `json:"write_timeout,omitempty"` // 写超时（毫秒）
}

// UserAccumulatorConfig 用户累加器配置
type UserAccumulatorConfig struct {
	Depth       *int    `json:"depth,omitempty"`        // 树深度 [1,20]
	Backend     *string `json:"backend,omitempty"`      // memory | badger
	BadgerPath  *string `json:"badger_path,omitempty"`  // badger 数据目录
	RootHistory *int    `json:"root_history,omitempty"` // 保留的历史根数量
}

// UserReplayConfig 用户防重放配置
type UserReplayConfig struct {
	ChallengeTTL    *int    `json:"challenge_ttl,omitempty"`    // 挑战有效期（毫秒）
	ConsumeStrategy *string `json:"consume_strategy,omitempty"` // auto | native-atomic | scripted-atomic | non-atomic
}

// UserRateLimitConfig 用户限流配置
type UserRateLimitConfig struct {
	Enabled *bool `json:"enabled,omitempty"`   // 是否启用
	Limit   *int  `json:"limit,omitempty"`     // 窗口内允许的请求数
	Window  *int  `json:"window_ms,omitempty"` // 窗口长度（毫秒）
}

// UserSyncConfig 用户累加器同步配置
type UserSyncConfig struct {
	Enabled         *bool   `json:"enabled,omitempty"`          // 是否启用集群同步
	Transport       *string `json:"transport,omitempty"`        // redis | local
	Channel         *string `json:"channel,omitempty"`          // 发布订阅频道名
	NodeID          *string `json:"node_id,omitempty"`          // 节点标识（留空自动生成）
	RebuildInterval *int    `json:"rebuild_interval,omitempty"` // 周期性重建间隔（秒）
}

// UserVerifierConfig 用户验证编排器配置
type UserVerifierConfig struct {
	StaleWindow       *int     `json:"stale_window,omitempty"`        // 请求时间戳最大过期窗口（毫秒）
	FutureSkew        *int     `json:"future_skew,omitempty"`         // 请求时间戳允许的未来偏移（毫秒）
	VerboseErrors     *bool    `json:"verbose_errors,omitempty"`      // 是否对外暴露具体失败原因
	AllowedClaimTypes []string `json:"allowed_claim_types,omitempty"` // 允许的声明类型白名单
	ArtifactsDir      *string  `json:"artifacts_dir,omitempty"`       // snarkjs verification_key 目录
	RequireChallenge  *bool    `json:"require_challenge,omitempty"`   // 是否只接受服务端签发的挑战
}

// UserAPIConfig 用户HTTP接入配置
type UserAPIConfig struct {
	Enabled    *bool   `json:"enabled,omitempty"`     // 是否启用HTTP接入
	ListenAddr *string `json:"listen_addr,omitempty"` // 监听地址
	Metrics    *bool   `json:"metrics,omitempty"`     // 是否暴露 /metrics
}

// StringPtr 返回字符串指针，便于构造用户配置
func StringPtr(v string) *string { return &v }

// IntPtr 返回整数指针
func IntPtr(v int) *int { return &v }

// BoolPtr 返回布尔指针
func BoolPtr(v bool) *bool { return &v }

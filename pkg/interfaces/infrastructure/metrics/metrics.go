// Package metrics 定义组件自报运行状态的接口
//
// 📋 **使用方式**：
// 1. 组件实现 StatsReporter
// 2. 在 fx 装配时交给 internal/core/infrastructure/metrics.ModuleCollector
// 3. 由 /metrics 统一抓取
package metrics

// ModuleStats 组件"自己认账"的运行状态
//
// 不追求绝对精确，关键是能反映趋势和相对大小。
type ModuleStats struct {
	Module      string `json:"module"`       // 组件名称：accumulator / issuer.cache ...
	Objects     int64  `json:"objects"`      // 主要对象数：叶子数 / 记录数
	CacheItems  int64  `json:"cache_items"`  // 缓存条目
	QueueLength int64  `json:"queue_length"` // 待处理队列长度
}

// StatsReporter 组件状态上报接口
type StatsReporter interface {
	// ModuleName 返回组件名称
	ModuleName() string

	// CollectStats 收集当前组件的状态
	CollectStats() ModuleStats
}

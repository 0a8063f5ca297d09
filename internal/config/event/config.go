// Package event 提供进程内事件总线配置
package event

// EventOptions 事件总线配置选项
type EventOptions struct {
	Enabled bool `json:"enabled"` // 是否启用事件总线
}

// Config 事件配置实现
type Config struct {
	options *EventOptions
}

// New 创建事件配置
func New(enabled *bool) *Config {
	options := &EventOptions{Enabled: defaultEnabled}
	if enabled != nil {
		options.Enabled = *enabled
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *EventOptions {
	return c.options
}

// IsEnabled 事件总线是否启用
func (c *Config) IsEnabled() bool {
	return c != nil && c.options.Enabled
}

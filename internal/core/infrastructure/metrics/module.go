package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
)

// ModuleParams 遥测模块依赖
type ModuleParams struct {
	fx.In

	Logger     logInterface.Logger   `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// ModuleOutput 遥测模块输出
type ModuleOutput struct {
	fx.Out

	Logging    *LoggingObserver
	Prometheus *PrometheusObserver

	// 以 TelemetryObserver 身份加入观察者组
	LoggingTelemetry    zkid.TelemetryObserver `group:"telemetry_observers"`
	PrometheusTelemetry zkid.TelemetryObserver `group:"telemetry_observers"`
}

// Module 返回遥测模块
//
// 提供：
// - LoggingObserver: 验证事件日志
// - PrometheusObserver: 验证计数与耗时
// 两者同时加入 telemetry_observers 组，由验证模块统一注入编排器。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideObservers),
	)
}

// ProvideObservers 创建遥测观察者
func ProvideObservers(params ModuleParams) (ModuleOutput, error) {
	prom, err := NewPrometheusObserver(params.Registerer)
	if err != nil {
		return ModuleOutput{}, err
	}
	logging := NewLoggingObserver(log.NewModuleLogger(params.Logger, "telemetry"))
	return ModuleOutput{
		Logging:             logging,
		Prometheus:          prom,
		LoggingTelemetry:    logging,
		PrometheusTelemetry: prom,
	}, nil
}

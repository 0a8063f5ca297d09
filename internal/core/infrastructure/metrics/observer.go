// Package metrics 提供验证遥测观察者与 Prometheus 采集器
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

const namespace = "zkid"

// LoggingObserver 将验证事件写入日志
type LoggingObserver struct {
	logger logInterface.Logger
}

// 确保实现接口
var _ zkid.TelemetryObserver = (*LoggingObserver)(nil)

// NewLoggingObserver 创建日志观察者
func NewLoggingObserver(logger logInterface.Logger) *LoggingObserver {
	return &LoggingObserver{logger: log.OrNop(logger)}
}

// Observe 通过为 Info，其余为 Warn
func (o *LoggingObserver) Observe(e types.VerificationEvent) {
	if e.Verified {
		o.logger.Infof("验证通过: claim_type=%s client=%s duration=%s", e.ClaimType, e.ClientID, e.Duration)
		return
	}
	kind := e.ErrorKind
	if kind == "" {
		kind = "invalid_proof"
	}
	o.logger.Warnf("验证未通过: claim_type=%s client=%s kind=%s duration=%s", e.ClaimType, e.ClientID, kind, e.Duration)
}

// PrometheusObserver 验证计数与耗时直方图
type PrometheusObserver struct {
	verifications *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// 确保实现接口
var _ zkid.TelemetryObserver = (*PrometheusObserver)(nil)

// NewPrometheusObserver 创建并注册指标；reg 为空时使用默认注册表
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verifier",
				Name:      "verifications_total",
				Help:      "Total number of proof verifications by claim type and outcome.",
			},
			[]string{"claim_type", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "verifier",
				Name:      "verification_duration_seconds",
				Help:      "Proof verification duration in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"claim_type"},
		),
	}
	for _, c := range []prometheus.Collector{o.verifications, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Observe 记录事件；outcome 为 verified、invalid_proof 或错误类别
func (o *PrometheusObserver) Observe(e types.VerificationEvent) {
	outcome := "verified"
	switch {
	case e.ErrorKind != "":
		outcome = e.ErrorKind
	case !e.Verified:
		outcome = "invalid_proof"
	}
	claimType := string(e.ClaimType)
	if claimType == "" {
		claimType = "unknown"
	}
	o.verifications.WithLabelValues(claimType, outcome).Inc()
	o.duration.WithLabelValues(claimType).Observe(e.Duration.Seconds())
}

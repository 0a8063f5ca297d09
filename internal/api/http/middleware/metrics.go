package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// Metrics 指标收集中间件
// 收集API性能指标，用于监控和告警
type Metrics struct {
	logger          logInterface.Logger
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.SummaryVec
}

// NewMetrics 创建指标中间件并注册到 reg；reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer, logger logInterface.Logger) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		logger: logger,
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zkid",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zkid",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "path"},
		),
		requestSize: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace:  "zkid",
				Subsystem:  "api",
				Name:       "request_size_bytes",
				Help:       "API request size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"method", "path"},
		),
	}
	for _, c := range []prometheus.Collector{m.requestCounter, m.requestDuration, m.requestSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware 返回Gin中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		if size := c.Request.ContentLength; size > 0 {
			m.requestSize.WithLabelValues(method, routeOf(c)).Observe(float64(size))
		}

		c.Next()

		// 标签使用路由模板
		path := routeOf(c)
		status := c.Writer.Status()
		duration := time.Since(start)
		m.requestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

		if m.logger != nil {
			m.logger.Debugf("request metrics: method=%s path=%s status=%d duration=%s", method, path, status, duration)
		}
	}
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

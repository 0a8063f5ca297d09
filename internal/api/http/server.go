// Package http 提供验证服务的 HTTP 接入层
//
// 路由：
//   - POST /v1/challenge         签发一次性挑战（配置了挑战存储时）
//   - POST /v1/verify            验证单声明、签名证明或多声明包
//   - GET  /v1/accumulator/root  当前累加器根（配置了累加器时）
//   - GET  /health               存活检查
//   - GET  /metrics              Prometheus 指标（启用时）
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/zkid/internal/api/http/handlers"
	"github.com/weisyn/zkid/internal/api/http/middleware"
	apiconfig "github.com/weisyn/zkid/internal/config/api"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// Options HTTP 服务依赖
type Options struct {
	Config       *apiconfig.APIOptions
	Verifier     handlers.Verifier
	Challenges   handlers.ChallengeIssuer // 可选
	ChallengeTTL time.Duration
	Accumulator  handlers.RootSource // 可选
	Registerer   prometheus.Registerer
	Gatherer     prometheus.Gatherer
	Logger       logInterface.Logger
}

// Server HTTP 服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *apiconfig.APIOptions
	logger     logInterface.Logger

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer 创建 HTTP 服务器并注册路由
func NewServer(opts Options) (*Server, error) {
	if opts.Verifier == nil {
		return nil, errors.New("http server requires a verifier")
	}
	if opts.Config == nil {
		opts.Config = apiconfig.New(nil).GetOptions()
	}
	logger := log.OrNop(opts.Logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewRequestID().Middleware())
	router.Use(middleware.ClientIdentity())
	router.Use(middleware.BodyLimit(opts.Config.MaxRequestSize))

	if opts.Config.Metrics {
		m, err := middleware.NewMetrics(opts.Registerer, logger)
		if err != nil {
			return nil, fmt.Errorf("register api metrics: %w", err)
		}
		router.Use(m.Middleware())

		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s := &Server{
		router: router,
		config: opts.Config,
		logger: logger,
	}
	s.setupRoutes(opts)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(opts Options) {
	handlers.NewHealthHandler(opts.Verifier.ProtocolVersion()).RegisterRoutes(s.router)

	v1 := s.router.Group("/v1")
	handlers.NewVerifyHandlers(opts.Verifier, s.logger).RegisterRoutes(v1)

	if opts.Challenges != nil {
		handlers.NewChallengeHandlers(opts.Challenges, opts.ChallengeTTL, s.logger).RegisterRoutes(v1)
	} else {
		s.logger.Info("未配置挑战存储，跳过 /v1/challenge")
	}
	if opts.Accumulator != nil {
		handlers.NewAccumulatorHandlers(opts.Accumulator).RegisterRoutes(v1)
	} else {
		s.logger.Info("未配置累加器，跳过 /v1/accumulator")
	}
}

// Handler 返回路由处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 实际监听地址；未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start 监听端口并在后台协程中处理请求
//
// 监听失败直接返回错误，不做端口漂移。
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("http server already started")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		// 正常关闭时返回 http.ErrServerClosed
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("❌ HTTP服务器运行失败: %v", err)
		}
	}(s.httpServer, s.done)

	s.logger.Infof("✅ HTTP服务器启动成功，监听地址: %s", ln.Addr())
	return nil
}

// Stop 优雅关闭，等待进行中的请求完成
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpServer, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("正在关闭HTTP服务器")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		s.logger.Errorf("HTTP服务器关闭出错: %v", err)
		return err
	}
	<-done
	s.logger.Info("HTTP服务器已关闭")
	return nil
}

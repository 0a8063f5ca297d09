// Package app 组装验证服务进程：配置加载、模块装配与生命周期
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/weisyn/zkid/internal/config"
)

// 启停超时
const (
	startTimeout = 60 * time.Second
	stopTimeout  = 30 * time.Second
)

// App 运行中的应用
type App interface {
	// Stop 优雅停止
	Stop() error

	// Wait 阻塞直到收到 SIGINT/SIGTERM，然后停止应用
	Wait()
}

type internalApp struct {
	bootstrap *Bootstrap
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

// Wait 等待退出信号
func (a *internalApp) Wait() {
	sig := WaitForSignal()
	fmt.Printf("\n🛑 收到信号 %v，正在优雅退出...\n", sig)
	if err := a.Stop(); err != nil {
		fmt.Printf("⚠️ 停止应用时出错: %v\n", err)
	}
}

// Start 加载配置并启动应用
//
// 未通过 WithAppConfig 提供配置时读取 WithConfigFile 指定的文件；
// 两者都没有时全部使用默认值。
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)
	if opts.appConfig == nil {
		cfg, err := config.LoadAppConfig(opts.configFilePath)
		if err != nil {
			return nil, err
		}
		opts.appConfig = cfg
	}

	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}
	return &internalApp{bootstrap: bootstrap}, nil
}

// WaitForSignal 阻塞等待 SIGINT/SIGTERM
func WaitForSignal() os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	return <-signals
}

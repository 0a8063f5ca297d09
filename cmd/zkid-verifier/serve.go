package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkid/internal/app"
)

var serveNoAPI bool

// serveCmd 启动验证服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动验证服务",
	Long:  "按配置装配累加器、防重放、发行方信任与证明系统，并启动 HTTP 验证接口。收到 SIGINT/SIGTERM 后优雅退出。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		opts := []app.Option{app.WithAppConfig(cfg)}
		if serveNoAPI {
			opts = append(opts, app.WithoutAPI())
		}
		instance, err := app.Start(opts...)
		if err != nil {
			return fmt.Errorf("启动失败: %w", err)
		}
		instance.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoAPI, "no-api", false, "不启动 HTTP 接口，仅运行累加器同步")
	rootCmd.AddCommand(serveCmd)
}

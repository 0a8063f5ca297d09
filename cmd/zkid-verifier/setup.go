package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkid/internal/core/proving"
)

var (
	setupOut   string
	setupDepth int
)

// setupCmd 生成证明/验证密钥
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "为全部电路执行可信设置",
	Long: `为全部已知电路执行 Groth16 可信设置，并将证明密钥与验证密钥写入输出目录。

单方设置只适用于开发与测试环境；生产环境应使用多方仪式产出的密钥，
并通过 verifier.artifacts_dir 指向验证密钥目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := loadProvider()
		if err != nil {
			return err
		}
		logger, err := newLogger(provider)
		if err != nil {
			return err
		}
		defer logger.Sync()

		depth := setupDepth
		if depth <= 0 {
			depth = provider.GetAccumulator().Depth
		}
		if setupOut == "" {
			return fmt.Errorf("%w: --out", errMissingArgument)
		}

		n, err := proving.SetupAll(depth, setupOut, logger)
		if err != nil {
			return fmt.Errorf("可信设置失败: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已写出 %d 个电路的密钥到 %s (depth=%d)\n", n, setupOut, depth)
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVarP(&setupOut, "out", "o", "", "密钥输出目录")
	setupCmd.Flags().IntVar(&setupDepth, "depth", 0, "累加器树深度 (缺省取配置 accumulator.depth)")
	rootCmd.AddCommand(setupCmd)
}

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/internal/core/issuer"
	"github.com/weisyn/zkid/internal/core/revocation"
	"github.com/weisyn/zkid/internal/core/syncer"
	configInterface "github.com/weisyn/zkid/pkg/interfaces/config"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/types"
)

// adminTimeout 单条运维命令的存储操作超时
const adminTimeout = 30 * time.Second

// adminEnv 运维命令共用的配置、日志与共享存储
type adminEnv struct {
	provider configInterface.Provider
	logger   logInterface.Logger
	client   kvInterface.Client
}

func (e *adminEnv) close() {
	_ = e.client.Close()
	_ = e.logger.Sync()
}

// withAdminEnv 打开共享存储后执行 fn
func withAdminEnv(fn func(ctx context.Context, env *adminEnv) error) error {
	provider, err := loadProvider()
	if err != nil {
		return err
	}
	logger, err := newLogger(provider)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	client, err := openSharedStore(ctx, provider, logger)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	env := &adminEnv{provider: provider, logger: logger, client: client}
	defer env.close()
	return fn(ctx, env)
}

// ============================================================================
//                              发行方信任列表
// ============================================================================

var (
	issuerPublicKey  string
	issuerValidFrom  string
	issuerValidUntil string
)

var issuerCmd = &cobra.Command{
	Use:   "issuer",
	Short: "管理发行方信任列表",
}

var issuerRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "登记或更新发行方",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := hex.DecodeString(issuerPublicKey); err != nil || issuerPublicKey == "" {
			return fmt.Errorf("%w: --public-key 需要十六进制公钥", types.ErrValidation)
		}
		rec := types.IssuerRecord{Name: args[0], PublicKey: issuerPublicKey, Status: types.IssuerActive}
		var err error
		if rec.ValidFrom, err = parseOptionalTime(issuerValidFrom); err != nil {
			return err
		}
		if rec.ValidUntil, err = parseOptionalTime(issuerValidUntil); err != nil {
			return err
		}
		return withIssuerRegistry(func(ctx context.Context, reg *issuer.KVRegistry) error {
			if err := reg.Register(ctx, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "发行方已登记: %s\n", rec.Name)
			return nil
		})
	},
}

var issuerSuspendCmd = &cobra.Command{
	Use:   "suspend <name>",
	Short: "暂停发行方",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIssuerStatus(cmd, args[0], types.IssuerSuspended)
	},
}

var issuerRevokeCmd = &cobra.Command{
	Use:   "revoke <name>",
	Short: "吊销发行方",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIssuerStatus(cmd, args[0], types.IssuerRevoked)
	},
}

var issuerActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "恢复发行方",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIssuerStatus(cmd, args[0], types.IssuerActive)
	},
}

var issuerRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "删除发行方记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIssuerRegistry(func(ctx context.Context, reg *issuer.KVRegistry) error {
			if err := reg.Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "发行方已删除: %s\n", args[0])
			return nil
		})
	},
}

var issuerShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "查看发行方记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIssuerRegistry(func(ctx context.Context, reg *issuer.KVRegistry) error {
			rec, err := reg.GetIssuer(ctx, args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("发行方不存在: %s", args[0])
			}
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

func withIssuerRegistry(fn func(ctx context.Context, reg *issuer.KVRegistry) error) error {
	return withAdminEnv(func(ctx context.Context, env *adminEnv) error {
		reg, err := issuer.NewKVRegistry(ctx, env.client, issuer.DefaultCacheTTL, env.logger)
		if err != nil {
			return err
		}
		defer reg.Close()
		return fn(ctx, reg)
	})
}

func setIssuerStatus(cmd *cobra.Command, name string, status types.IssuerStatus) error {
	return withIssuerRegistry(func(ctx context.Context, reg *issuer.KVRegistry) error {
		rec, err := reg.GetIssuer(ctx, name)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("发行方不存在: %s", name)
		}
		rec.Status = status
		if err := reg.Register(ctx, *rec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "发行方状态已更新: %s -> %s\n", name, status)
		return nil
	})
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time %q", types.ErrValidation, s)
	}
	return &t, nil
}

// ============================================================================
//                              吊销黑名单
// ============================================================================

var revocationCmd = &cobra.Command{
	Use:   "revocation",
	Short: "管理凭证吊销黑名单",
}

var revocationRevokeCmd = &cobra.Command{
	Use:   "revoke <commitment>",
	Short: "吊销凭证承诺",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRevocationStore(func(ctx context.Context, store *revocation.Store) error {
			if err := store.Revoke(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已吊销")
			return nil
		})
	},
}

var revocationReinstateCmd = &cobra.Command{
	Use:   "reinstate <commitment>",
	Short: "恢复凭证承诺",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRevocationStore(func(ctx context.Context, store *revocation.Store) error {
			if err := store.Reinstate(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已恢复")
			return nil
		})
	},
}

var revocationCheckCmd = &cobra.Command{
	Use:   "check <commitment>",
	Short: "查询凭证承诺是否已吊销",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRevocationStore(func(ctx context.Context, store *revocation.Store) error {
			revoked, err := store.IsRevoked(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked=%t\n", revoked)
			return nil
		})
	},
}

func withRevocationStore(fn func(ctx context.Context, store *revocation.Store) error) error {
	return withAdminEnv(func(ctx context.Context, env *adminEnv) error {
		return fn(ctx, revocation.NewStore(env.client, env.logger))
	})
}

// ============================================================================
//                              累加器成员
// ============================================================================

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "管理累加器中的有效凭证",
	Long: `在共享快照上增删凭证承诺并广播变更。

命令先从共享快照恢复累加器，变更后写回快照并在同步通道上发布事件，
运行中的验证节点据此重建。`,
}

var credentialAddCmd = &cobra.Command{
	Use:   "add <commitment>",
	Short: "加入凭证承诺",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSharedAccumulator(cmd, func(ctx context.Context, acc *syncer.SyncedAccumulator) error {
			return acc.Add(ctx, args[0])
		})
	},
}

var credentialRemoveCmd = &cobra.Command{
	Use:   "remove <commitment>",
	Short: "移除凭证承诺",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSharedAccumulator(cmd, func(ctx context.Context, acc *syncer.SyncedAccumulator) error {
			return acc.Remove(ctx, args[0])
		})
	},
}

var credentialWitnessCmd = &cobra.Command{
	Use:   "witness <commitment>",
	Short: "输出承诺的默克尔见证 (JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSharedAccumulator(cmd, func(_ context.Context, acc *syncer.SyncedAccumulator) error {
			w, err := acc.GetWitness(args[0])
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("%w: 承诺 %s 不在累加器中", types.ErrValidation, args[0])
			}
			data, err := json.MarshalIndent(w, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var credentialRootCmd = &cobra.Command{
	Use:   "root",
	Short: "显示共享快照的根",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSharedAccumulator(cmd, nil)
	},
}

// withSharedAccumulator 从共享快照恢复内存累加器，执行 fn 后输出根信息
func withSharedAccumulator(cmd *cobra.Command, fn func(ctx context.Context, acc *syncer.SyncedAccumulator) error) error {
	return withAdminEnv(func(ctx context.Context, env *adminEnv) error {
		accOpts := env.provider.GetAccumulator()
		inner, err := accumulator.New(accOpts.Depth,
			accumulator.WithRootHistory(accOpts.RootHistory),
			accumulator.WithLogger(env.logger),
		)
		if err != nil {
			return err
		}
		defer inner.Close()

		snapshots := syncer.NewSnapshotStore(env.client)
		if _, err := syncer.NewRebuilder(inner, snapshots, 0, env.logger).Rebuild(ctx); err != nil {
			return fmt.Errorf("恢复共享快照失败: %w", err)
		}

		syncOpts := env.provider.GetSync()
		channel := syncer.NewRedisChannel(env.client, syncOpts.Channel, env.logger)
		defer channel.Close()
		acc := syncer.NewSyncedAccumulator(inner, channel, syncOpts.NodeID+"-admin",
			syncer.WithSnapshotStore(snapshots),
			syncer.WithSyncLogger(env.logger),
		)

		if fn != nil {
			if err := fn(ctx, acc); err != nil {
				return err
			}
		}
		info := acc.GetRootInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "root=%s version=%d size=%d\n", info.Root, info.Version, acc.Size())
		return nil
	})
}

func init() {
	issuerRegisterCmd.Flags().StringVar(&issuerPublicKey, "public-key", "", "发行方公钥 (hex)")
	issuerRegisterCmd.Flags().StringVar(&issuerValidFrom, "valid-from", "", "生效时间 (RFC3339)")
	issuerRegisterCmd.Flags().StringVar(&issuerValidUntil, "valid-until", "", "失效时间 (RFC3339)")
	issuerCmd.AddCommand(issuerRegisterCmd, issuerSuspendCmd, issuerRevokeCmd, issuerActivateCmd, issuerRemoveCmd, issuerShowCmd)

	revocationCmd.AddCommand(revocationRevokeCmd, revocationReinstateCmd, revocationCheckCmd)
	credentialCmd.AddCommand(credentialAddCmd, credentialRemoveCmd, credentialWitnessCmd, credentialRootCmd)

	rootCmd.AddCommand(issuerCmd, revocationCmd, credentialCmd)
}

package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/config"
	corehistory "pathfinder/internal/core/history"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/reporter"
)

const queryTimeout = 30 * time.Second

var outputJSON string

// NewHistoryCmd 创建 history 父命令
func NewHistoryCmd(cfgFn func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "查看扫描历史与差异",
		Long: `扫描历史保存在 history.dsn 指定的数据库中 (默认 SQLite)。
每次 scan run 结束后自动保存，可按 ID 查看、对比任意两次扫描。`,
	}

	cmd.PersistentFlags().StringVar(&outputJSON, "oj", "", "指定保存 json 文件路径")

	cmd.AddCommand(newListCmd(cfgFn))
	cmd.AddCommand(newShowCmd(cfgFn))
	cmd.AddCommand(newDiffCmd(cfgFn))
	cmd.AddCommand(newStatsCmd(cfgFn))
	return cmd
}

// withStore 打开历史库执行 fn，结束后关闭
func withStore(cfgFn func() *config.Config, fn func(ctx context.Context, store corehistory.Store) error) error {
	store, err := corehistory.Open(cfgFn().History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return fn(ctx, store)
}

func exportJSON(v interface{}) error {
	if outputJSON == "" {
		return nil
	}
	if err := reporter.SaveJSON(outputJSON, v); err != nil {
		return err
	}
	pterm.Success.Printfln("JSON saved to %s", outputJSON)
	return nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid scan id %q", s)
	}
	return id, nil
}

func newListCmd(cfgFn func() *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出最近的扫描",
		Example: `  pathfinder history list
  pathfinder history list -n 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfgFn, func(ctx context.Context, store corehistory.Store) error {
				scans, err := store.List(ctx, limit)
				if err != nil {
					return err
				}
				if len(scans) == 0 {
					pterm.Warning.Println("No scan history.")
					return nil
				}
				if err := reporter.NewConsoleReporter().PrintTable(corehistory.SummaryRows(scans)); err != nil {
					return err
				}
				return exportJSON(scans)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", corehistory.DefaultListLimit, "显示条数")
	return cmd
}

func newShowCmd(cfgFn func() *config.Config) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:     "show <id>",
		Short:   "查看一次扫描的完整结果",
		Example: `  pathfinder history show 3 -v`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cfgFn, func(ctx context.Context, store corehistory.Store) error {
				snap, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				console := reporter.NewConsoleReporter()
				console.Verbose = verbose
				if err := console.PrintSnapshot(snap); err != nil {
					return err
				}
				return exportJSON(snap)
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "输出每台主机的 CVE 与目录明细")
	return cmd
}

func newDiffCmd(cfgFn func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [<older-id> <newer-id>]",
		Short: "对比两次扫描 (默认最近两次)",
		Example: `  pathfinder history diff
  pathfinder history diff 3 7`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <older-id> <newer-id>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfgFn, func(ctx context.Context, store corehistory.Store) error {
				older, newer, err := loadPair(ctx, store, args)
				if err != nil {
					return err
				}
				delta := corehistory.Diff(older, newer)
				if err := reporter.NewConsoleReporter().PrintDelta(delta); err != nil {
					return err
				}
				return exportJSON(delta)
			})
		},
	}
}

// loadPair 按参数读取两次快照，无参数时取最近两次
func loadPair(ctx context.Context, store corehistory.Store, args []string) (*model.ScanSnapshot, *model.ScanSnapshot, error) {
	var olderID, newerID uint64
	if len(args) == 2 {
		var err error
		if olderID, err = parseID(args[0]); err != nil {
			return nil, nil, err
		}
		if newerID, err = parseID(args[1]); err != nil {
			return nil, nil, err
		}
	} else {
		scans, err := store.List(ctx, 2)
		if err != nil {
			return nil, nil, err
		}
		if len(scans) < 2 {
			return nil, nil, fmt.Errorf("need at least two scans to compare, found %d", len(scans))
		}
		olderID, newerID = scans[1].ID, scans[0].ID
	}

	older, err := store.Get(ctx, olderID)
	if err != nil {
		return nil, nil, err
	}
	newer, err := store.Get(ctx, newerID)
	if err != nil {
		return nil, nil, err
	}
	return older, newer, nil
}

func newStatsCmd(cfgFn func() *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "历史扫描统计",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfgFn, func(ctx context.Context, store corehistory.Store) error {
				scans, err := store.List(ctx, limit)
				if err != nil {
					return err
				}
				o := corehistory.Summarize(scans)
				if o.TotalScans == 0 {
					pterm.Warning.Println("No scan history.")
					return nil
				}
				pterm.DefaultBox.WithTitle("History").Println(overviewText(o))
				return exportJSON(o)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "统计最近多少次扫描")
	return cmd
}

func overviewText(o corehistory.Overview) string {
	return fmt.Sprintf("Scans          : %d\nFirst          : %s\nLast           : %s\nAvg alive      : %.1f\nMax alive      : %d\nCritical hosts : %d",
		o.TotalScans,
		o.FirstScan.Format("2006-01-02 15:04:05"),
		o.LastScan.Format("2006-01-02 15:04:05"),
		o.AvgAliveHosts, o.MaxAliveHosts, o.TotalCriticals)
}

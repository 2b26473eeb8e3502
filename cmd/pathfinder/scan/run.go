package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/config"
	"pathfinder/internal/core/factory"
	"pathfinder/internal/core/history"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/pipeline"
	"pathfinder/internal/core/reporter"
	"pathfinder/internal/pkg/logger"
)

// RunOptions run 命令参数
type RunOptions struct {
	Target      string
	Ports       string
	Workers     int
	Level       string
	NoCVE       bool
	NoDir       bool
	NoHistory   bool
	Verbose     bool
	WatchConfig bool
}

// NewRunScanCmd 创建 scan run 命令
func NewRunScanCmd(env Env) *cobra.Command {
	opts := &RunOptions{Target: pipeline.AutoTarget}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "完整侦察流水线",
		Long: `对目标网段执行完整流水线，并与历史库中上一次扫描对比。
支持 CIDR、IP 范围、IP 列表、文件以及 auto (本机所在网段)。

流程: Target -> Alive -> Port -> Web/TLS -> OS/Device/Hostname -> CVE/Dir -> Risk -> Report -> History`,
		Example: `  pathfinder scan run
  pathfinder scan run -t 192.168.1.0/24 -c 100
  pathfinder scan run -t 10.0.0.1-50 -p 22,80,443 --level medium --oj result.json
  pathfinder scan run -t targets.txt --no-cve --no-dir --no-history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(env, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Target, "target", "t", opts.Target, "扫描目标 (CIDR/IP/Range/File/auto)")
	flags.StringVarP(&opts.Ports, "ports", "p", "", "端口列表 (默认使用配置或内置常用端口)")
	flags.IntVarP(&opts.Workers, "workers", "c", 0, "并发扫描的主机数 (默认使用配置)")
	flags.StringVar(&opts.Level, "level", "", "目录探测级别 (quick, medium)")
	flags.BoolVar(&opts.NoCVE, "no-cve", false, "禁用 CVE 关联")
	flags.BoolVar(&opts.NoDir, "no-dir", false, "禁用目录探测")
	flags.BoolVar(&opts.NoHistory, "no-history", false, "不读写扫描历史")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "输出每台主机的 CVE 与目录明细")
	flags.BoolVar(&opts.WatchConfig, "watch-config", false, "扫描期间监听配置文件，日志级别变更即时生效")

	return cmd
}

func runScan(env Env, opts *RunOptions) error {
	cfg := env.Config()

	targets, err := pipeline.ExpandRange(opts.Target)
	if err != nil {
		return err
	}
	ports, err := parsePorts(opts.Ports, cfg.Scan.Ports, nil)
	if err != nil {
		return err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Scan.Workers
	}

	orch, err := factory.NewOrchestrator(cfg, factory.Options{
		NoCVE:    opts.NoCVE,
		NoDir:    opts.NoDir,
		DirLevel: opts.Level,
	})
	if err != nil {
		return err
	}

	if opts.WatchConfig {
		stop := watchConfig(env)
		defer stop()
	}

	ctx, cancel := signalContext()
	defer cancel()

	pterm.DefaultSection.Printfln("Scanning %d hosts (%s), workers %d", len(targets), opts.Target, workers)

	var done int64
	total := len(targets)
	orch.OnHost = func(h model.HostRecord) {
		n := atomic.AddInt64(&done, 1)
		if h.Alive {
			pterm.Success.Printfln("[%d/%d] %s alive via %s, %d open ports", n, total, h.IP, h.DetectionMethod, len(h.OpenPorts))
		} else {
			pterm.Debug.Printfln("[%d/%d] %s down", n, total, h.IP)
		}
	}

	snap := orch.RunLabeled(ctx, pipeline.RangeLabel(opts.Target), targets, ports, workers)
	if ctx.Err() != nil {
		pterm.Warning.Println("Scan interrupted, reporting partial results.")
	}

	console := reporter.NewConsoleReporter()
	console.Verbose = opts.Verbose
	out := reporter.NewMultiReporter(
		console,
		reporter.NewFileReporter(globalOutputOptions.OutputJSON, globalOutputOptions.OutputCSV),
	)
	if err := out.Report(context.Background(), snap); err != nil {
		return err
	}

	if cfg.History.Enabled && !opts.NoHistory {
		recordHistory(cfg.History, console, snap)
	}
	return nil
}

// recordHistory 与上一次扫描对比并保存本次快照
// 历史库不可用不影响本次结果，只给出警告
func recordHistory(cfg config.HistoryConfig, console *reporter.ConsoleReporter, snap *model.ScanSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := history.Open(cfg)
	if err != nil {
		warnPersistence(err)
		return
	}
	defer store.Close()

	delta, err := history.LatestComparison(ctx, store, snap)
	if err != nil {
		warnPersistence(err)
	} else if delta != nil {
		if err := console.PrintDelta(delta); err != nil {
			logger.Warnf("[history] print delta: %v", err)
		}
	}

	id, err := store.Save(ctx, snap)
	if err != nil {
		warnPersistence(err)
		return
	}
	pterm.Success.Printfln("Scan saved to history (id=%d)", id)
}

func warnPersistence(err error) {
	var pe *history.PersistenceError
	if errors.As(err, &pe) {
		logger.Warnf("[history] %s failed: %v", pe.Op, pe.Err)
	} else {
		logger.Warnf("[history] %v", err)
	}
	pterm.Warning.Printfln("History unavailable: %v", err)
}

// watchConfig 启动配置热加载，返回停止函数
func watchConfig(env Env) func() {
	if env.ConfigPath == nil || env.OnConfigChange == nil {
		return func() {}
	}
	w, err := config.WatchConfig(env.ConfigPath(), env.OnConfigChange)
	if err != nil {
		pterm.Warning.Printfln("Config watch disabled: %v", err)
		return func() {}
	}
	logger.Infof("[config] watching %s", env.ConfigPath())
	return func() {
		if err := w.Stop(); err != nil {
			logger.Debugf("[config] stop watcher: %v", err)
		}
	}
}

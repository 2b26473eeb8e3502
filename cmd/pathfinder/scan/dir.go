package scan

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/core/analyzer/dirscan"
	"pathfinder/internal/core/model"
)

// NewDirScanCmd 创建 dir 子命令
func NewDirScanCmd(env Env) *cobra.Command {
	var (
		target  string
		port    int
		useTLS  bool
		baseURL string
		level   string
		workers int
		rps     int
	)

	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Web 目录与敏感文件探测",
		Long: `使用内置字典探测 Web 路径，按状态码归类 (200/301/302/401/403)，
并标记 .env、.git/config、备份文件等敏感文件。
级别: quick (默认), medium。`,
		Example: `  pathfinder scan dir -t 192.168.1.10
  pathfinder scan dir -t 192.168.1.10 -p 8443 --tls --level medium
  pathfinder scan dir --url http://192.168.1.10:8080/app --rate 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config()
			if target == "" && baseURL == "" {
				return fmt.Errorf("target (-t) or --url is required")
			}

			dirCfg := cfg.Analyzer.Dir
			if workers > 0 {
				dirCfg.Workers = workers
			}
			if rps > 0 {
				dirCfg.RatePerSecond = rps
			}
			if level == "" {
				level = dirCfg.Level
			}

			ctx, cancel := signalContext()
			defer cancel()

			scanner := dirscan.NewScanner(dirCfg, cfg.App.UserAgent)

			var (
				report *model.DirReport
				err    error
			)
			if baseURL != "" {
				words, werr := dirscan.Wordlist(level)
				if werr != nil {
					return werr
				}
				pterm.Info.Printfln("Probing %s with %d paths", baseURL, len(words))
				report, err = scanner.Scan(ctx, strings.TrimRight(baseURL, "/"), words)
			} else {
				if useTLS && port == 80 {
					port = 443
				}
				pterm.Info.Printfln("Probing %s:%d (level %s)", target, port, level)
				report, err = scanner.Probe(ctx, target, port, useTLS, level)
			}
			if err != nil && report == nil {
				return err
			}
			if err != nil {
				pterm.Warning.Printfln("Probe stopped early: %v", err)
			}

			pterm.Info.Printfln("%d/%d paths responded (%d sensitive, %d protected)",
				len(report.Found)+len(report.Protected)+len(report.Sensitive), report.Total,
				len(report.Sensitive), len(report.Protected))
			return printAndExport(report, report)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&target, "target", "t", "", "目标 IP")
	flags.IntVarP(&port, "port", "p", 80, "目标端口")
	flags.BoolVar(&useTLS, "tls", false, "使用 HTTPS")
	flags.StringVar(&baseURL, "url", "", "完整的基础 URL，指定后忽略 -t/-p/--tls")
	flags.StringVar(&level, "level", "", "字典级别 (quick, medium)")
	flags.IntVarP(&workers, "workers", "c", 0, "并发请求数 (默认使用配置)")
	flags.IntVar(&rps, "rate", 0, "每秒最大请求数 (默认使用配置)")

	return cmd
}

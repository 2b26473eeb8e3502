package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/core/factory"
	"pathfinder/internal/core/scanner/port"
)

// NewCVEScanCmd 创建 cve 子命令
func NewCVEScanCmd(env Env) *cobra.Command {
	var (
		target  string
		ports   string
		banners []string
		catalog string
	)

	cmd := &cobra.Command{
		Use:   "cve",
		Short: "根据服务 Banner 关联已知 CVE",
		Long: `从 Banner 中提取服务与版本号，按漏洞库中的版本区间匹配 CVE。
Banner 可以通过 --banner 直接给出，也可以对 -t 指定的主机在线抓取。
无法识别版本号时给出该服务的第一条记录，置信度为 LOW。`,
		Example: `  pathfinder scan cve --banner "80=Server: Apache/2.4.49 (Unix)"
  pathfinder scan cve --banner "22=SSH-2.0-OpenSSH_7.2p2" --banner "21=220 (vsFTPd 2.3.4)"
  pathfinder scan cve -t 192.168.1.10 -p 21,22,80
  pathfinder scan cve -t 192.168.1.10 --catalog my_cves.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config()
			if target == "" && len(banners) == 0 {
				return fmt.Errorf("target (-t) or at least one --banner is required")
			}

			input, err := parseBannerFlags(banners)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if target != "" {
				portList, err := parsePorts(ports, cfg.Scan.Ports, port.DefaultPorts)
				if err != nil {
					return err
				}
				res := factory.NewEnumerator(cfg.Scan).Enumerate(ctx, target, portList)
				for p, b := range res.Banners {
					if _, ok := input[p]; !ok && b != "" {
						input[p] = b
					}
				}
				pterm.Info.Printfln("%s: %d open ports, %d banners", target, len(res.OpenPorts), len(input))
			}

			cveCfg := cfg.Analyzer.CVE
			if catalog != "" {
				cveCfg.CatalogPath = catalog
			}
			analyzer, err := factory.NewCVEAnalyzer(cveCfg)
			if err != nil {
				return err
			}

			report, err := analyzer.Analyze(ctx, input)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("%d CVEs matched (critical %d, high %d, medium %d, low %d)",
				report.Total, len(report.Critical), len(report.High), len(report.Medium), len(report.Low))
			return printAndExport(report, report)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&target, "target", "t", "", "在线抓取 Banner 的目标 IP")
	flags.StringVarP(&ports, "ports", "p", "", "抓取 Banner 的端口列表")
	flags.StringArrayVarP(&banners, "banner", "b", nil, "端口=Banner，可重复 (e.g. \"80=Apache/2.4.49\")")
	flags.StringVar(&catalog, "catalog", "", "自定义漏洞库 YAML 文件")

	return cmd
}

// parseBannerFlags 解析 port=banner 形式的参数
func parseBannerFlags(values []string) (map[int]string, error) {
	out := make(map[int]string, len(values))
	for _, v := range values {
		k, banner, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid banner %q, expected port=text", v)
		}
		p, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid port in banner %q", v)
		}
		out[p] = banner
	}
	return out, nil
}

package scan

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/core/factory"
	"pathfinder/internal/core/pipeline"
	"pathfinder/internal/core/risk"
	"pathfinder/internal/core/scanner/port"
	"pathfinder/internal/pkg/utils"
)

// portEntry 单个开放端口
type portEntry struct {
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	Service string `json:"service,omitempty"`
	Banner  string `json:"banner,omitempty"`
}

type portRows []portEntry

func (r portRows) Headers() []string {
	return []string{"IP", "Port", "Service", "Banner"}
}

func (r portRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{e.IP, strconv.Itoa(e.Port), e.Service, utils.Truncate(e.Banner, 60)})
	}
	return rows
}

// NewPortScanCmd 创建 port 子命令
func NewPortScanCmd(env Env) *cobra.Command {
	var (
		target  string
		ports   string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "port",
		Short: "TCP 端口枚举与 Banner 抓取",
		Long: `对目标执行 TCP connect 端口扫描，并抓取开放端口的 Banner。
不做存活探测，所有目标都会被扫描。`,
		Example: `  pathfinder scan port -t 192.168.1.10 -p 22,80,443,8000-8100
  pathfinder scan port -t 192.168.1.0/28 --oc ports.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config()
			targets, err := pipeline.ExpandRange(target)
			if err != nil {
				return err
			}
			portList, err := parsePorts(ports, cfg.Scan.Ports, port.DefaultPorts)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Scan.Workers
			}

			ctx, cancel := signalContext()
			defer cancel()

			enumerator := factory.NewEnumerator(cfg.Scan)
			pterm.DefaultSection.Printfln("Enumerating ports on %d hosts", len(targets))

			slots := make([][]portEntry, len(targets))
			index := make(map[string]int, len(targets))
			for i, ip := range targets {
				index[ip] = i
			}
			forEachTarget(ctx, targets, workers, func(ctx context.Context, ip string) {
				res := enumerator.Enumerate(ctx, ip, portList)
				var found []portEntry
				for _, p := range res.OpenPorts {
					e := portEntry{IP: ip, Port: p, Banner: res.Banners[p]}
					if pr, ok := risk.CriticalPorts[p]; ok {
						e.Service = pr.Service
					}
					found = append(found, e)
				}
				slots[index[ip]] = found
			})

			results := portRows{}
			for _, found := range slots {
				results = append(results, found...)
			}
			return printAndExport(results, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&target, "target", "t", "", "扫描目标 (CIDR/IP/Range/File)")
	flags.StringVarP(&ports, "ports", "p", "", "端口列表 (默认使用配置或内置常用端口)")
	flags.IntVarP(&workers, "workers", "c", 0, "并发扫描的主机数 (默认使用配置)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

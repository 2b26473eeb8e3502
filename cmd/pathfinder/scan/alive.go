package scan

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/core/pipeline"
	"pathfinder/internal/core/scanner/alive"
	"pathfinder/internal/core/scanner/fingerprint"
)

// aliveEntry 单个存活主机
type aliveEntry struct {
	IP        string `json:"ip"`
	Method    string `json:"method"`
	LatencyMs int64  `json:"latency_ms"`
	TTL       int    `json:"ttl"`
	OSHint    string `json:"os_hint"`
}

type aliveRows []aliveEntry

func (r aliveRows) Headers() []string {
	return []string{"IP", "Method", "Latency(ms)", "TTL", "OS Hint"}
}

func (r aliveRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{e.IP, e.Method, strconv.FormatInt(e.LatencyMs, 10), strconv.Itoa(e.TTL), e.OSHint})
	}
	return rows
}

// NewAliveScanCmd 创建 alive 子命令
func NewAliveScanCmd(env Env) *cobra.Command {
	var (
		target  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "alive",
		Short: "主机存活探测 (ICMP -> ARP -> TCP)",
		Long: `依次使用 ICMP、ARP 与 TCP 连接判断主机是否存活，第一个成功的方式即为探测方式。
TCP 连接被拒绝同样视为存活。`,
		Example: `  pathfinder scan alive -t 192.168.1.0/24
  pathfinder scan alive -t auto --oj alive.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config()
			targets, err := pipeline.ExpandRange(target)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Scan.Workers
			}

			ctx, cancel := signalContext()
			defer cancel()

			discoverer := alive.NewDefaultDiscoverer(cfg.Discovery)
			pterm.DefaultSection.Printfln("Discovering %d hosts", len(targets))

			// 按目标下标写入，保持输入顺序
			slots := make([]*aliveEntry, len(targets))
			index := make(map[string]int, len(targets))
			for i, ip := range targets {
				index[ip] = i
			}
			forEachTarget(ctx, targets, workers, func(ctx context.Context, ip string) {
				res := discoverer.Discover(ctx, ip)
				if !res.Alive {
					return
				}
				slots[index[ip]] = &aliveEntry{
					IP:        ip,
					Method:    string(res.Method),
					LatencyMs: res.Latency.Milliseconds(),
					TTL:       res.TTL,
					OSHint:    fingerprint.TTLLabel(res.TTL),
				}
			})

			results := aliveRows{}
			for _, e := range slots {
				if e != nil {
					results = append(results, *e)
				}
			}
			pterm.Info.Printfln("%d/%d hosts alive", len(results), len(targets))
			return printAndExport(results, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&target, "target", "t", pipeline.AutoTarget, "扫描目标 (CIDR/IP/Range/File/auto)")
	flags.IntVarP(&workers, "workers", "c", 0, "并发探测的主机数 (默认使用配置)")

	return cmd
}

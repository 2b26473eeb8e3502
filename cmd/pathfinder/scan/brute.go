package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pathfinder/internal/core/factory"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/scanner/brute"
	"pathfinder/internal/pkg/utils"
)

// defaultServicePorts 未指定端口时按服务取默认端口
var defaultServicePorts = map[string]int{
	"ftp":      21,
	"ssh":      22,
	"telnet":   23,
	"snmp":     161,
	"mssql":    1433,
	"mysql":    3306,
	"postgres": 5432,
	"redis":    6379,
	"mongo":    27017,
}

// serviceAliases 常见的服务别名
var serviceAliases = map[string]string{
	"postgresql": "postgres",
	"pgsql":      "postgres",
	"mongodb":    "mongo",
	"sqlserver":  "mssql",
}

// bruteResults 多个服务的检测结果
type bruteResults []*model.BruteReport

func (r bruteResults) Headers() []string {
	return (&model.BruteReport{}).Headers()
}

func (r bruteResults) Rows() [][]string {
	var rows [][]string
	for _, rep := range r {
		rows = append(rows, rep.Rows()...)
	}
	return rows
}

// NewBruteScanCmd 创建 brute 子命令
func NewBruteScanCmd(env Env) *cobra.Command {
	var (
		target      string
		port        int
		service     string
		users       string
		passwords   string
		maxAttempts int
		delay       time.Duration
		scanAll     bool
		quick       bool
	)

	cmd := &cobra.Command{
		Use:   "brute",
		Short: "受控的弱口令检测 (SSH/FTP/Telnet/MySQL/Postgres/MSSQL/Redis/MongoDB/SNMP)",
		Long: `针对单个服务执行受控的弱口令检测。
尝试次数有硬上限 (--max-attempts)，相邻两次尝试之间至少间隔 --delay。
--quick 模式只检测 21/22/23/3306 中开放的端口，每个服务最多 5 次尝试。`,
		Example: `  # SSH (内置字典)
  pathfinder scan brute -t 192.168.1.10 -s ssh

  # MySQL (自定义字典)
  pathfinder scan brute -t 192.168.1.10 -s mysql --users root --pass "123456,root,admin"

  # Redis (无需用户名)
  pathfinder scan brute -t 192.168.1.10 -s redis --pass passwords.txt

  # 常见服务快速检测
  pathfinder scan brute -t 192.168.1.10 --quick`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config()
			if target == "" {
				return fmt.Errorf("target is required (-t)")
			}

			scanner := factory.NewFullBruteScanner(cfg.Analyzer.Brute)

			ctx, cancel := signalContext()
			defer cancel()

			if quick {
				quickPorts := make([]int, 0, len(brute.QuickCheckServices))
				for p := range brute.QuickCheckServices {
					quickPorts = append(quickPorts, p)
				}
				sort.Ints(quickPorts)

				res := factory.NewEnumerator(cfg.Scan).Enumerate(ctx, target, quickPorts)
				pterm.Info.Printfln("[*] Quick check on %s, open: %s", target, model.JoinPorts(res.OpenPorts))
				results := bruteResults(scanner.QuickCheck(ctx, target, res.OpenPorts))
				if len(results) == 0 {
					pterm.Success.Println("No weak credentials found.")
				}
				return printAndExport(results, results)
			}

			if service == "" {
				return fmt.Errorf("service is required (-s), supported: %s", strings.Join(scanner.Services(), ", "))
			}
			service = strings.ToLower(service)
			if alias, ok := serviceAliases[service]; ok {
				service = alias
			}
			if port <= 0 {
				p, ok := defaultServicePorts[service]
				if !ok {
					return fmt.Errorf("port is required (-p)")
				}
				port = p
				pterm.Info.Printfln("[*] Using default port %d for service %s", port, service)
			}

			req := brute.Request{
				IP:            target,
				Port:          port,
				Service:       service,
				MaxAttempts:   maxAttempts,
				Delay:         delay,
				StopOnSuccess: !scanAll,
			}
			var err error
			if req.Users, err = utils.LoadList(users); err != nil {
				return fmt.Errorf("failed to load users: %w", err)
			}
			if req.Passwords, err = utils.LoadList(passwords); err != nil {
				return fmt.Errorf("failed to load passwords: %w", err)
			}

			pterm.Info.Printfln("[*] Starting brute force on %s:%d (%s)...", target, port, service)
			report, err := scanner.Attempt(ctx, req)
			if report == nil {
				return err
			}
			if err != nil {
				pterm.Warning.Printfln("Stopped: %v", err)
			}

			switch report.Status {
			case model.BruteStatusUnsupported:
				return fmt.Errorf("unsupported service %q, supported: %s", service, strings.Join(scanner.Services(), ", "))
			case model.BruteStatusConnectionFailed:
				pterm.Warning.Printfln("%s:%d unreachable after %d attempts", target, port, report.Attempts)
			}
			pterm.Info.Printfln("Status: %s, attempts: %d, credentials: %d",
				report.Status, report.Attempts, len(report.Credentials))
			return printAndExport(report, report)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&target, "target", "t", "", "目标 IP (e.g. 192.168.1.1)")
	flags.IntVarP(&port, "port", "p", 0, "目标端口 (默认按服务推断)")
	flags.StringVarP(&service, "service", "s", "", "服务名称 (ssh/ftp/telnet/mysql/postgres/mssql/redis/mongo/snmp)")
	flags.StringVarP(&users, "users", "u", "", "自定义用户名列表 (逗号分隔或文件)")
	flags.StringVar(&passwords, "pass", "", "自定义密码列表 (逗号分隔或文件)")
	flags.IntVar(&maxAttempts, "max-attempts", 0, "最大尝试次数 (默认使用配置)")
	flags.DurationVar(&delay, "delay", 0, "两次尝试之间的最小间隔 (默认使用配置)")
	flags.BoolVarP(&scanAll, "all", "a", false, "尝试全部凭据 (默认: 找到一个成功后即停止)")
	flags.BoolVar(&quick, "quick", false, "快速检测常见服务")

	return cmd
}

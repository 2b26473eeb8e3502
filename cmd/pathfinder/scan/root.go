package scan

import (
	"github.com/spf13/cobra"

	"pathfinder/internal/config"
)

// Env 根命令注入的运行环境
type Env struct {
	Config         func() *config.Config
	ConfigPath     func() string
	OnConfigChange config.ConfigChangeCallback
}

// OutputOptions 结果导出路径，空字符串表示不导出
type OutputOptions struct {
	OutputJSON string
	OutputCSV  string
}

var globalOutputOptions OutputOptions

// NewScanCmd 创建 scan 父命令
func NewScanCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "执行扫描任务",
		Long: `执行局域网侦察任务：完整流水线 (run) 或单独的存活探测、端口枚举、
CVE 关联、目录探测与弱口令检测。请使用具体的子命令。`,
	}

	pFlags := cmd.PersistentFlags()
	pFlags.StringVar(&globalOutputOptions.OutputJSON, "outputJson", "", "指定保存 json 文件路径 (alias: --oj)")
	pFlags.StringVar(&globalOutputOptions.OutputCSV, "outputCsv", "", "指定保存 csv 文件路径 (alias: --oc)")

	pFlags.StringVar(&globalOutputOptions.OutputJSON, "oj", "", "outputJson 简写")
	pFlags.Lookup("oj").Hidden = true
	pFlags.StringVar(&globalOutputOptions.OutputCSV, "oc", "", "outputCsv 简写")
	pFlags.Lookup("oc").Hidden = true

	cmd.AddCommand(NewRunScanCmd(env))
	cmd.AddCommand(NewAliveScanCmd(env))
	cmd.AddCommand(NewPortScanCmd(env))
	cmd.AddCommand(NewCVEScanCmd(env))
	cmd.AddCommand(NewDirScanCmd(env))
	cmd.AddCommand(NewBruteScanCmd(env))

	return cmd
}

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"pathfinder/internal/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Long:  "显示 PathFinder 的版本号、快照格式版本、构建时间、Git 提交和 Go 版本。",
	Run: func(cmd *cobra.Command, args []string) {
		goVersion := version.GoVersion
		if goVersion == "" {
			goVersion = runtime.Version()
		}
		fmt.Printf("PathFinder %s\n", version.GetVersion())
		fmt.Printf("API Version: %s\n", version.APIVersion)
		fmt.Printf("Build Time: %s\n", version.BuildTime)
		fmt.Printf("Git Commit: %s\n", version.GitCommit)
		fmt.Printf("Go Version: %s\n", goVersion)
		fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

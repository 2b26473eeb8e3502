package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pterm/pterm"

	"pathfinder/internal/core/reporter"
	"pathfinder/internal/pkg/utils"
)

// signalContext Ctrl+C 时取消扫描，已完成的结果照常输出
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// forEachTarget 以固定并发对每个目标执行 fn
func forEachTarget(ctx context.Context, targets []string, workers int, fn func(ctx context.Context, ip string)) {
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, ip := range targets {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, ip)
		}(ip)
	}
	wg.Wait()
}

// parsePorts 优先使用命令行端口，其次配置，均为空返回 fallback
func parsePorts(flagValue, configValue string, fallback []int) ([]int, error) {
	raw := flagValue
	if raw == "" {
		raw = configValue
	}
	if raw == "" {
		return fallback, nil
	}
	ports, err := utils.ParsePortList(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid port list %q: %w", raw, err)
	}
	return ports, nil
}

// printAndExport 打印表格并按全局输出参数导出
// json 导出 payload，csv 导出表格
func printAndExport(data reporter.TabularData, payload interface{}) error {
	console := reporter.NewConsoleReporter()
	if len(data.Rows()) == 0 {
		pterm.Warning.Println("No results.")
	} else if err := console.PrintTable(data); err != nil {
		return err
	}
	return exportResults(data, payload)
}

func exportResults(data reporter.TabularData, payload interface{}) error {
	if path := globalOutputOptions.OutputJSON; path != "" {
		if err := reporter.SaveJSON(path, payload); err != nil {
			return err
		}
		pterm.Success.Printfln("JSON saved to %s", path)
	}
	if path := globalOutputOptions.OutputCSV; path != "" {
		if err := reporter.SaveCSV(path, data); err != nil {
			return err
		}
		pterm.Success.Printfln("CSV saved to %s", path)
	}
	return nil
}

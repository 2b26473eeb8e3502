// Package analyzer 定义扫描流水线可插拔的富化分析器
package analyzer

import (
	"context"

	"pathfinder/internal/core/model"
	"pathfinder/internal/core/scanner/brute"
)

// CVEAnalyzer 根据端口 banner 关联已知漏洞
type CVEAnalyzer interface {
	Analyze(ctx context.Context, banners map[int]string) (*model.CVEReport, error)
}

// DirectoryAnalyzer 对 Web 服务做目录/敏感文件探测
type DirectoryAnalyzer interface {
	Probe(ctx context.Context, ip string, port int, useTLS bool, level string) (*model.DirReport, error)
}

// BruteAnalyzer 单服务弱口令检测
type BruteAnalyzer interface {
	Attempt(ctx context.Context, req brute.Request) (*model.BruteReport, error)
}

// Noop 分析器被禁用时注入的空实现
type Noop struct{}

func (Noop) Analyze(context.Context, map[int]string) (*model.CVEReport, error) {
	return &model.CVEReport{}, nil
}

func (Noop) Probe(context.Context, string, int, bool, string) (*model.DirReport, error) {
	return &model.DirReport{Stats: map[int]int{}}, nil
}

var (
	_ CVEAnalyzer       = Noop{}
	_ DirectoryAnalyzer = Noop{}
	_ BruteAnalyzer     = (*brute.Scanner)(nil)
)

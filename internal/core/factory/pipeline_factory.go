package factory

import (
	"fmt"

	"pathfinder/internal/config"
	"pathfinder/internal/core/analyzer"
	"pathfinder/internal/core/analyzer/cve"
	"pathfinder/internal/core/analyzer/dirscan"
	"pathfinder/internal/core/lib/network/qos"
	"pathfinder/internal/core/pipeline"
	"pathfinder/internal/core/risk"
	"pathfinder/internal/core/scanner/alive"
	"pathfinder/internal/core/scanner/fingerprint"
	"pathfinder/internal/core/scanner/port"
	"pathfinder/internal/core/scanner/web"
)

// Options CLI 对配置文件的覆盖项
type Options struct {
	NoCVE    bool
	NoDir    bool
	DirLevel string
}

// NewSocketLimiter 按配置创建全局套接字预算
func NewSocketLimiter(cfg config.BudgetConfig) *qos.AdaptiveLimiter {
	initial, lo, hi := cfg.Initial, cfg.Min, cfg.Max
	if initial <= 0 {
		initial = 500
	}
	if lo <= 0 {
		lo = 50
	}
	if hi < initial {
		hi = initial * 2
	}
	return qos.NewAdaptiveLimiter(initial, lo, hi)
}

// NewEnumerator 创建端口枚举器
func NewEnumerator(cfg config.ScanConfig) *port.Enumerator {
	return port.NewEnumerator(NewSocketLimiter(cfg.SocketBudget), cfg.PortTimeout, cfg.BannerTimeout)
}

// NewCVEAnalyzer 加载漏洞库 (自定义 YAML 或内置) 并创建分析器
func NewCVEAnalyzer(cfg config.CVEConfig) (*cve.Analyzer, error) {
	catalog, err := cve.LoadCatalogOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load cve catalog: %w", err)
	}
	return cve.NewAnalyzer(catalog, cfg.CacheSize)
}

// NewOrchestrator 按配置组装完整的扫描流水线
// 被禁用的分析器以空实现注入
func NewOrchestrator(cfg *config.Config, opts Options) (*pipeline.Orchestrator, error) {
	c := pipeline.Components{
		Discoverer: alive.NewDefaultDiscoverer(cfg.Discovery),
		Enumerator: NewEnumerator(cfg.Scan),
		HTTP:       web.NewHTTPProber(0, cfg.App.UserAgent),
		TLS:        web.NewTLSProber(0),
		CVE:        analyzer.Noop{},
		Directory:  analyzer.Noop{},
		Assessor:   risk.NewAssessor(),
	}

	if cfg.Discovery.ResolveHostname {
		c.Resolver = fingerprint.NewHostnameResolver(cfg.Discovery.HostnameToolTimeout)
	}

	if cfg.Analyzer.CVE.Enabled && !opts.NoCVE {
		a, err := NewCVEAnalyzer(cfg.Analyzer.CVE)
		if err != nil {
			return nil, err
		}
		c.CVE = a
	}

	if cfg.Analyzer.Dir.Enabled && !opts.NoDir {
		c.Directory = dirscan.NewScanner(cfg.Analyzer.Dir, cfg.App.UserAgent)
	}

	level := cfg.Analyzer.Dir.Level
	if opts.DirLevel != "" {
		level = opts.DirLevel
	}
	if level == "" {
		level = dirscan.LevelQuick
	}

	return pipeline.NewOrchestrator(c, cfg.Scan.HostTimeout, level), nil
}

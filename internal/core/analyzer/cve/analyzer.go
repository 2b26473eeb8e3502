package cve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/utils"
)

const DefaultCacheSize = 1024

// portServices banner 中识别不出服务时按端口推断
var portServices = map[int]string{
	22:    "openssh",
	80:    "apache",
	443:   "apache",
	3306:  "mysql",
	5432:  "postgresql",
	6379:  "redis",
	8080:  "apache",
	27017: "mongodb",
}

// Analyzer banner -> CVE 关联，结果按 (端口, banner) 缓存
type Analyzer struct {
	catalog  Catalog
	services []string
	cache    *lru.Cache[string, []model.CVEFinding]
}

// NewAnalyzer 创建分析器，catalog 为空时使用内置漏洞库
func NewAnalyzer(catalog Catalog, cacheSize int) (*Analyzer, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []model.CVEFinding](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cve cache: %w", err)
	}
	return &Analyzer{
		catalog:  catalog,
		services: catalog.Services(),
		cache:    cache,
	}, nil
}

// Analyze 逐端口关联 banner，结果按等级分组
// 空 banner 的端口不参与关联
func (a *Analyzer) Analyze(ctx context.Context, banners map[int]string) (*model.CVEReport, error) {
	report := &model.CVEReport{}

	ports := make([]int, 0, len(banners))
	for p, b := range banners {
		if strings.TrimSpace(b) != "" {
			ports = append(ports, p)
		}
	}
	sort.Ints(ports)

	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		for _, f := range a.Match(port, banners[port]) {
			report.Add(f)
		}
	}
	return report, nil
}

// Match 关联单个 banner
// 有版本号时返回所有区间命中的条目 (HIGH)，无版本号时仅返回该服务第一条 (LOW)
func (a *Analyzer) Match(port int, banner string) []model.CVEFinding {
	key := fmt.Sprintf("%d|%s", port, banner)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	findings := a.match(port, banner)
	a.cache.Add(key, findings)
	return findings
}

func (a *Analyzer) match(port int, banner string) []model.CVEFinding {
	service := a.DetectService(port, banner)
	if service == "" {
		return nil
	}
	entries := a.catalog[service]
	if len(entries) == 0 {
		return nil
	}

	short := utils.Truncate(banner, 100)
	version := ExtractVersion(banner, service)
	if version == "" {
		e := entries[0]
		return []model.CVEFinding{{
			CVEID:       e.CVEID,
			Severity:    e.Severity,
			CVSS:        e.CVSS,
			Description: "Unknown version - " + e.Description,
			Exploit:     e.Exploit,
			Service:     service,
			Version:     "Unknown",
			Confidence:  model.ConfidenceLow,
			Port:        port,
			Banner:      short,
		}}
	}

	var findings []model.CVEFinding
	for _, e := range entries {
		if !InRange(version, e.Range) {
			continue
		}
		findings = append(findings, model.CVEFinding{
			CVEID:       e.CVEID,
			Severity:    e.Severity,
			CVSS:        e.CVSS,
			Description: e.Description,
			Exploit:     e.Exploit,
			Service:     service,
			Version:     version,
			Confidence:  model.ConfidenceHigh,
			Port:        port,
			Banner:      short,
		})
	}
	return findings
}

// DetectService banner 中出现的服务名优先，其次按端口推断
func (a *Analyzer) DetectService(port int, banner string) string {
	lower := strings.ToLower(banner)
	for _, s := range a.services {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return portServices[port]
}

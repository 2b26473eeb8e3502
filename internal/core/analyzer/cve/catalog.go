package cve

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pathfinder/internal/core/model"
)

// Entry 漏洞库条目，Range 为闭区间 [min, max]
type Entry struct {
	Range       []string       `yaml:"range"`
	CVEID       string         `yaml:"cve"`
	Severity    model.Severity `yaml:"severity"`
	CVSS        float64        `yaml:"cvss"`
	Description string         `yaml:"description"`
	Exploit     string         `yaml:"exploit"`
}

// Catalog 服务名 -> 条目列表，加载后只读
type Catalog map[string][]Entry

// Services 服务名按字母序返回，保证检测顺序稳定
func (c Catalog) Services() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultCatalog 内置漏洞库
func DefaultCatalog() Catalog {
	return Catalog{
		"mysql": {
			{[]string{"5.7.0", "5.7.32"}, "CVE-2021-2022", model.SeverityCritical, 9.8, "SQL Injection via username", "Available"},
			{[]string{"5.6.0", "5.6.50"}, "CVE-2020-14765", model.SeverityHigh, 7.5, "Denial of Service vulnerability", "POC Available"},
		},
		"apache": {
			{[]string{"2.4.0", "2.4.49"}, "CVE-2021-41773", model.SeverityCritical, 9.8, "Path Traversal & Remote Code Execution", "Exploit Public"},
			{[]string{"2.4.0", "2.4.48"}, "CVE-2021-40438", model.SeverityCritical, 9.0, "SSRF vulnerability in mod_proxy", "Available"},
		},
		"nginx": {
			{[]string{"1.0.0", "1.20.0"}, "CVE-2021-23017", model.SeverityHigh, 8.1, "DNS resolver buffer overflow", "Available"},
		},
		"openssh": {
			{[]string{"7.0", "8.5"}, "CVE-2021-28041", model.SeverityMedium, 5.3, "Heap-based buffer overflow", "POC"},
			{[]string{"1.0", "7.2"}, "CVE-2016-0777", model.SeverityHigh, 8.0, "Information disclosure", "Exploit Public"},
		},
		"microsoft-iis": {
			{[]string{"7.5", "10.0"}, "CVE-2017-7269", model.SeverityCritical, 9.3, "Buffer overflow in WebDAV", "Metasploit"},
		},
		"mongodb": {
			{[]string{"3.0", "4.0.5"}, "CVE-2019-2386", model.SeverityHigh, 7.5, "Unauthorized access", "Available"},
		},
		"redis": {
			{[]string{"4.0.0", "5.0.7"}, "CVE-2019-10192", model.SeverityHigh, 7.2, "Unauthenticated access", "Available"},
		},
		"postgresql": {
			{[]string{"9.0", "13.1"}, "CVE-2020-25695", model.SeverityHigh, 8.8, "Privilege escalation", "POC"},
		},
		"wordpress": {
			{[]string{"3.0", "5.8.0"}, "CVE-2021-39201", model.SeverityHigh, 7.5, "SQL Injection", "Available"},
		},
	}
}

// LoadCatalog 从 YAML 文件加载漏洞库，服务名统一转小写
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cve catalog: %w", err)
	}

	var raw map[string][]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cve catalog %s: %w", path, err)
	}

	catalog := make(Catalog, len(raw))
	for service, entries := range raw {
		for i, e := range entries {
			if e.CVEID == "" || len(e.Range) != 2 {
				return nil, fmt.Errorf("cve catalog %s: entry %d of %s is incomplete", path, i, service)
			}
		}
		catalog[strings.ToLower(service)] = entries
	}
	return catalog, nil
}

// LoadCatalogOrDefault 路径为空时使用内置漏洞库
func LoadCatalogOrDefault(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	return LoadCatalog(path)
}

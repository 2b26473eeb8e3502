package cve

import (
	"regexp"
	"strconv"
	"strings"
)

type versionPattern struct {
	service string
	re      *regexp.Regexp
}

// 顺序与匹配优先级一致
var versionPatterns = []versionPattern{
	{"mysql", regexp.MustCompile(`(?i)MySQL[/\s]+(\d+\.\d+\.\d+)`)},
	{"mariadb", regexp.MustCompile(`(?i)MariaDB[/\s]+(\d+\.\d+\.\d+)`)},
	{"apache", regexp.MustCompile(`(?i)Apache[/\s]+(\d+\.\d+\.\d+)`)},
	{"nginx", regexp.MustCompile(`(?i)nginx[/\s]+(\d+\.\d+\.\d+)`)},
	{"openssh", regexp.MustCompile(`(?i)OpenSSH[_/\s]+(\d+\.\d+)`)},
	{"microsoft-iis", regexp.MustCompile(`(?i)Microsoft-IIS[/\s]+(\d+\.\d+)`)},
	{"redis", regexp.MustCompile(`(?i)Redis[/\s]+(\d+\.\d+\.\d+)`)},
	{"mongodb", regexp.MustCompile(`(?i)MongoDB[/\s]+(\d+\.\d+\.\d+)`)},
	{"postgresql", regexp.MustCompile(`(?i)PostgreSQL[/\s]+(\d+\.\d+)`)},
}

var genericVersion = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// ExtractVersion 从 banner 中提取版本号，提取不到返回空串
func ExtractVersion(banner, service string) string {
	lower := strings.ToLower(banner)
	service = strings.ToLower(service)
	for _, p := range versionPatterns {
		if !strings.Contains(service, p.service) && !strings.Contains(lower, p.service) {
			continue
		}
		if m := p.re.FindStringSubmatch(banner); m != nil {
			return m[1]
		}
	}
	if m := genericVersion.FindStringSubmatch(banner); m != nil {
		return m[1]
	}
	return ""
}

// CompareVersions 按数值逐段比较，缺失的段视为 0
func CompareVersions(a, b string) int {
	pa, pb := parseVersion(a), parseVersion(b)
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// InRange 判断版本是否落在闭区间内
func InRange(version string, r []string) bool {
	if len(r) != 2 {
		return false
	}
	return CompareVersions(r[0], version) <= 0 && CompareVersions(version, r[1]) <= 0
}

// parseVersion 每段只取前导数字，"8p1" 取 8
func parseVersion(v string) []int {
	parts := strings.Split(strings.TrimSpace(v), ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		n, _ := strconv.Atoi(p[:end])
		out = append(out, n)
	}
	return out
}

package utils

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePortList 解析端口列表，支持逗号分隔与范围 (e.g. "22,80,8000-8010")
// 结果去重并保持首次出现的顺序，任一项非法即返回错误
func ParsePortList(input string) ([]int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty port list")
	}

	var result []int
	seen := make(map[int]bool)
	add := func(p int) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := parsePort(bounds[0])
			end, err2 := parsePort(bounds[1])
			if err1 != nil || err2 != nil || start > end {
				return nil, fmt.Errorf("invalid port range: %q", part)
			}
			for p := start; p <= end; p++ {
				add(p)
			}
			continue
		}

		p, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		add(p)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("empty port list")
	}
	return result, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("invalid port: %q", s)
	}
	return p, nil
}

// SortedInts 返回升序副本
func SortedInts(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}

// IntSetDiff 返回 a 中存在而 b 中不存在的元素（升序）
func IntSetDiff(a, b []int) []int {
	inB := make(map[int]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []int
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// Truncate 按字节截断字符串
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

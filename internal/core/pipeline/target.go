package pipeline

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"

	"pathfinder/internal/pkg/utils"
)

// MaxRangeSize 单个范围最多展开的地址数
const MaxRangeSize = 65536

// AutoTarget 自动探测本地网段
const AutoTarget = "auto"

const maxLabelTargets = 4

// RangeParseError 目标格式无法识别
type RangeParseError struct {
	Input  string
	Reason string
}

func (e *RangeParseError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Input, e.Reason)
}

// ExpandRange 将目标描述展开为 IPv4 地址列表
// 支持 CIDR、a.b.c.X-Y、a.b.c.d-e.f.g.h、单个 IP、逗号组合、文件以及 auto
// 结果按首次出现顺序去重
func ExpandRange(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, &RangeParseError{Input: input, Reason: "empty target"}
	}

	entries, err := utils.LoadList(input)
	if err != nil {
		return nil, &RangeParseError{Input: input, Reason: err.Error()}
	}

	var (
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(ips []string) {
		for _, ip := range ips {
			if _, ok := seen[ip]; ok {
				continue
			}
			seen[ip] = struct{}{}
			out = append(out, ip)
		}
	}

	for _, entry := range entries {
		if strings.EqualFold(entry, AutoTarget) {
			nets, err := LocalNetworks()
			if err != nil {
				return nil, &RangeParseError{Input: entry, Reason: err.Error()}
			}
			if len(nets) == 0 {
				return nil, &RangeParseError{Input: entry, Reason: "no usable local IPv4 network"}
			}
			for _, n := range nets {
				ips, err := expandEntry(n)
				if err != nil {
					return nil, err
				}
				add(ips)
			}
			continue
		}

		ips, err := expandEntry(entry)
		if err != nil {
			return nil, err
		}
		add(ips)
	}

	if len(out) == 0 {
		return nil, &RangeParseError{Input: input, Reason: "no targets"}
	}
	return out, nil
}

func expandEntry(entry string) ([]string, error) {
	if strings.Contains(entry, "/") {
		return expandCIDR(entry)
	}
	if strings.Contains(entry, "-") {
		return expandDashRange(entry)
	}
	ip, ok := parseIPv4(entry)
	if !ok {
		return nil, &RangeParseError{Input: entry, Reason: "not an IPv4 address"}
	}
	return []string{uint32ToIP(ip)}, nil
}

// expandCIDR 网络地址与广播地址不计入，/31 与 /32 保留全部地址
func expandCIDR(entry string) ([]string, error) {
	_, ipNet, err := net.ParseCIDR(entry)
	if err != nil {
		return nil, &RangeParseError{Input: entry, Reason: "malformed CIDR"}
	}
	ones, bits := ipNet.Mask.Size()
	if bits != 32 {
		return nil, &RangeParseError{Input: entry, Reason: "only IPv4 networks are supported"}
	}

	size := uint64(1) << uint(32-ones)
	first := binary.BigEndian.Uint32(ipNet.IP.To4())
	last := first + uint32(size-1)
	if ones < 31 {
		first++
		last--
	}
	return rangeList(entry, first, last)
}

// expandDashRange 处理 a.b.c.X-Y 与 a.b.c.d-e.f.g.h
func expandDashRange(entry string) ([]string, error) {
	parts := strings.SplitN(entry, "-", 2)
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	start, ok := parseIPv4(left)
	if !ok {
		return nil, &RangeParseError{Input: entry, Reason: "invalid range start"}
	}

	var end uint32
	if strings.Contains(right, ".") {
		if end, ok = parseIPv4(right); !ok {
			return nil, &RangeParseError{Input: entry, Reason: "invalid range end"}
		}
	} else {
		octet, err := strconv.Atoi(right)
		if err != nil || octet < 0 || octet > 255 {
			return nil, &RangeParseError{Input: entry, Reason: "invalid last octet"}
		}
		end = start&0xFFFFFF00 | uint32(octet)
	}

	if end < start {
		return nil, &RangeParseError{Input: entry, Reason: "range end before start"}
	}
	return rangeList(entry, start, end)
}

func rangeList(entry string, first, last uint32) ([]string, error) {
	if last < first {
		return nil, &RangeParseError{Input: entry, Reason: "empty range"}
	}
	if uint64(last-first)+1 > MaxRangeSize {
		return nil, &RangeParseError{Input: entry, Reason: fmt.Sprintf("range exceeds %d addresses", MaxRangeSize)}
	}

	out := make([]string, 0, last-first+1)
	for ip := first; ; ip++ {
		out = append(out, uint32ToIP(ip))
		if ip == last {
			break
		}
	}
	return out, nil
}

func parseIPv4(s string) (uint32, bool) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return 0, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

func uint32ToIP(v uint32) string {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, v)
	return b.String()
}

// TargetLabel 已展开目标列表的简短描述，较长的列表只保留首尾
func TargetLabel(targets []string) string {
	switch n := len(targets); {
	case n == 0:
		return ""
	case n <= maxLabelTargets:
		return strings.Join(targets, ",")
	default:
		return fmt.Sprintf("%s,...,%s (%d hosts)", targets[0], targets[n-1], n)
	}
}

package pipeline

import (
	"fmt"
	"net"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"

	"pathfinder/internal/pkg/logger"
)

// 自动模式下单个网段的最大前缀，避免 /16 之类的大网段
const autoMinPrefix = 24

// interfaceLister 便于测试替换
var interfaceLister = psnet.Interfaces

// LocalNetworks 枚举本机已启用接口上的 IPv4 网段
// 跳过回环与链路本地地址，比 /24 更大的网段收缩为本机所在的 /24
func LocalNetworks() ([]string, error) {
	ifaces, err := interfaceLister()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, iface := range ifaces {
		if hasFlag(iface.Flags, "loopback") || !hasFlag(iface.Flags, "up") {
			continue
		}
		for _, addr := range iface.Addrs {
			cidr, ok := clampNetwork(addr.Addr)
			if !ok || seen[cidr] {
				continue
			}
			seen[cidr] = true
			logger.Debugf("[pipeline] auto target %s from %s", cidr, iface.Name)
			out = append(out, cidr)
		}
	}
	return out, nil
}

func clampNetwork(addr string) (string, bool) {
	ip, ipNet, err := net.ParseCIDR(addr)
	if err != nil {
		return "", false
	}
	v4 := ip.To4()
	if v4 == nil || v4.IsLoopback() || v4.IsLinkLocalUnicast() {
		return "", false
	}

	ones, _ := ipNet.Mask.Size()
	if ones < autoMinPrefix {
		ones = autoMinPrefix
	}
	mask := net.CIDRMask(ones, 32)
	return fmt.Sprintf("%s/%d", v4.Mask(mask).String(), ones), true
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// RangeLabel 快照中记录的目标范围：保留用户输入，auto 替换为实际探测的网段
func RangeLabel(input string) string {
	input = strings.TrimSpace(input)
	if !strings.EqualFold(input, AutoTarget) {
		return input
	}
	nets, err := LocalNetworks()
	if err != nil || len(nets) == 0 {
		return input
	}
	return strings.Join(nets, ",")
}

package model

import (
	"strings"
	"time"
)

// OS 分布统计的分类
const (
	OSFamilyWindows = "Windows"
	OSFamilyLinux   = "Linux"
	OSFamilyMacOS   = "macOS"
	OSFamilyMobile  = "Mobile"
	OSFamilyNetwork = "Network"
	OSFamilyUnknown = "Unknown"
)

// Statistics 扫描统计，只能由 ComputeStatistics 生成
type Statistics struct {
	TotalHosts         int            `json:"total_hosts"`
	AliveHosts         int            `json:"alive_hosts"`
	TotalOpenPorts     int            `json:"total_open_ports"`
	CriticalHosts      int            `json:"critical_hosts"`
	HighRiskHosts      int            `json:"high_risk_hosts"`
	OSDistribution     map[string]int `json:"os_distribution"`
	MethodDistribution map[string]int `json:"method_distribution"`
}

// ScanSnapshot 一次完整扫描的快照
type ScanSnapshot struct {
	ID          uint64       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	TargetRange string       `json:"target_range"`
	Hosts       []HostRecord `json:"hosts"`
	Statistics  Statistics   `json:"statistics"`
}

// NewSnapshot 构造快照并派生统计信息
func NewSnapshot(targetRange string, ts time.Time, hosts []HostRecord) *ScanSnapshot {
	if hosts == nil {
		hosts = []HostRecord{}
	}
	return &ScanSnapshot{
		Timestamp:   ts,
		TargetRange: targetRange,
		Hosts:       hosts,
		Statistics:  ComputeStatistics(hosts),
	}
}

// AliveHosts 返回存活主机
func (s *ScanSnapshot) AliveHosts() []HostRecord {
	out := make([]HostRecord, 0, len(s.Hosts))
	for _, h := range s.Hosts {
		if h.Alive {
			out = append(out, h)
		}
	}
	return out
}

// ComputeStatistics 根据主机列表计算统计
func ComputeStatistics(hosts []HostRecord) Statistics {
	stats := Statistics{
		TotalHosts:         len(hosts),
		OSDistribution:     map[string]int{},
		MethodDistribution: map[string]int{},
	}
	for _, h := range hosts {
		if !h.Alive {
			continue
		}
		stats.AliveHosts++
		stats.TotalOpenPorts += len(h.OpenPorts)
		switch h.RiskLevel {
		case SeverityCritical:
			stats.CriticalHosts++
		case SeverityHigh:
			stats.HighRiskHosts++
		}
		stats.OSDistribution[OSFamily(h.OSGuess)]++
		stats.MethodDistribution[string(h.DetectionMethod)]++
	}
	return stats
}

// OSFamily 将 OS 标签归类
func OSFamily(label string) string {
	l := strings.ToLower(label)
	switch {
	case l == "":
		return OSFamilyUnknown
	case strings.Contains(l, "ios") || strings.Contains(l, "android") || strings.Contains(l, "mobile"):
		return OSFamilyMobile
	case strings.Contains(l, "windows"):
		return OSFamilyWindows
	case strings.Contains(l, "linux") || strings.Contains(l, "unix"):
		return OSFamilyLinux
	case strings.Contains(l, "macos"):
		return OSFamilyMacOS
	case strings.Contains(l, "cisco") || strings.Contains(l, "network"):
		return OSFamilyNetwork
	}
	return OSFamilyUnknown
}

package model

import (
	"fmt"
	"time"
)

// HostChange 新增或消失的主机
type HostChange struct {
	IP        string    `json:"ip"`
	Hostname  string    `json:"hostname,omitempty"`
	OS        string    `json:"os,omitempty"`
	OpenPorts []int     `json:"open_ports"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
}

// PortChange 端口开放或关闭
type PortChange struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	Ports    []int  `json:"ports"`
}

// OSChange 系统识别结果变化
type OSChange struct {
	IP    string `json:"ip"`
	OldOS string `json:"old_os"`
	NewOS string `json:"new_os"`
}

// CriticalChange 严重发现数量的变化
type CriticalChange struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	Delta    int    `json:"delta"`
}

// DeltaSummary 变化汇总
type DeltaSummary struct {
	TotalChanges          int       `json:"total_changes"`
	NewHosts              int       `json:"new_hosts"`
	DisappearedHosts      int       `json:"disappeared_hosts"`
	NewOpenPorts          int       `json:"new_open_ports"`
	ClosedPorts           int       `json:"closed_ports"`
	OSChanges             int       `json:"os_changes"`
	NewCriticalFindings   int       `json:"new_critical_findings"`
	FixedCriticalFindings int       `json:"fixed_critical_findings"`
	OlderTimestamp        time.Time `json:"older_timestamp"`
	NewerTimestamp        time.Time `json:"newer_timestamp"`
}

// ScanDelta 两次快照的差异
type ScanDelta struct {
	NewHosts              []HostChange     `json:"new_hosts"`
	DisappearedHosts      []HostChange     `json:"disappeared_hosts"`
	NewOpenPorts          []PortChange     `json:"new_open_ports"`
	ClosedPorts           []PortChange     `json:"closed_ports"`
	OSChanges             []OSChange       `json:"os_changes"`
	NewCriticalFindings   []CriticalChange `json:"new_critical_findings"`
	FixedCriticalFindings []CriticalChange `json:"fixed_critical_findings"`
	Summary               DeltaSummary     `json:"summary"`
}

// HasChanges 是否存在任何变化
func (d *ScanDelta) HasChanges() bool {
	return d.Summary.TotalChanges > 0
}

func (d *ScanDelta) Headers() []string {
	return []string{"Change", "IP", "Hostname", "Detail"}
}

func (d *ScanDelta) Rows() [][]string {
	var rows [][]string
	for _, h := range d.NewHosts {
		rows = append(rows, []string{"new host", h.IP, h.Hostname, fmt.Sprintf("%s ports=[%s]", h.OS, JoinPorts(h.OpenPorts))})
	}
	for _, h := range d.DisappearedHosts {
		rows = append(rows, []string{"disappeared", h.IP, h.Hostname, "last seen " + h.LastSeen.Format("2006-01-02 15:04:05")})
	}
	for _, p := range d.NewOpenPorts {
		rows = append(rows, []string{"port opened", p.IP, p.Hostname, JoinPorts(p.Ports)})
	}
	for _, p := range d.ClosedPorts {
		rows = append(rows, []string{"port closed", p.IP, p.Hostname, JoinPorts(p.Ports)})
	}
	for _, o := range d.OSChanges {
		rows = append(rows, []string{"os changed", o.IP, "", fmt.Sprintf("%s -> %s", o.OldOS, o.NewOS)})
	}
	for _, c := range d.NewCriticalFindings {
		rows = append(rows, []string{"new critical", c.IP, c.Hostname, fmt.Sprintf("+%d", c.Delta)})
	}
	for _, c := range d.FixedCriticalFindings {
		rows = append(rows, []string{"fixed critical", c.IP, c.Hostname, fmt.Sprintf("-%d", c.Delta)})
	}
	return rows
}

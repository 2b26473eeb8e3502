package history

import (
	"bytes"
	"context"
	"net"
	"sort"
	"time"

	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/utils"
)

// Diff 比较两次快照，older 在前
// 只比较存活主机，所有输出按 IP 排序，结果与调用顺序无关
func Diff(older, newer *model.ScanSnapshot) *model.ScanDelta {
	d := &model.ScanDelta{
		NewHosts:              []model.HostChange{},
		DisappearedHosts:      []model.HostChange{},
		NewOpenPorts:          []model.PortChange{},
		ClosedPorts:           []model.PortChange{},
		OSChanges:             []model.OSChange{},
		NewCriticalFindings:   []model.CriticalChange{},
		FixedCriticalFindings: []model.CriticalChange{},
	}

	oldHosts := aliveByIP(older)
	newHosts := aliveByIP(newer)

	for _, ip := range sortedKeys(newHosts) {
		h := newHosts[ip]
		prev, ok := oldHosts[ip]
		if !ok {
			d.NewHosts = append(d.NewHosts, model.HostChange{
				IP:        ip,
				Hostname:  h.Hostname,
				OS:        h.OSGuess,
				OpenPorts: utils.SortedInts(h.OpenPorts),
			})
			continue
		}

		if opened := utils.IntSetDiff(h.OpenPorts, prev.OpenPorts); len(opened) > 0 {
			d.NewOpenPorts = append(d.NewOpenPorts, model.PortChange{IP: ip, Hostname: h.Hostname, Ports: opened})
		}
		if closed := utils.IntSetDiff(prev.OpenPorts, h.OpenPorts); len(closed) > 0 {
			d.ClosedPorts = append(d.ClosedPorts, model.PortChange{IP: ip, Hostname: h.Hostname, Ports: closed})
		}
		if prev.OSGuess != h.OSGuess {
			d.OSChanges = append(d.OSChanges, model.OSChange{IP: ip, OldOS: prev.OSGuess, NewOS: h.OSGuess})
		}

		before := len(prev.SecurityRisks.Critical)
		after := len(h.SecurityRisks.Critical)
		switch {
		case after > before:
			d.NewCriticalFindings = append(d.NewCriticalFindings, model.CriticalChange{IP: ip, Hostname: h.Hostname, Delta: after - before})
		case before > after:
			d.FixedCriticalFindings = append(d.FixedCriticalFindings, model.CriticalChange{IP: ip, Hostname: h.Hostname, Delta: before - after})
		}
	}

	var lastSeen time.Time
	if older != nil {
		lastSeen = older.Timestamp
	}
	for _, ip := range sortedKeys(oldHosts) {
		if _, ok := newHosts[ip]; ok {
			continue
		}
		h := oldHosts[ip]
		d.DisappearedHosts = append(d.DisappearedHosts, model.HostChange{
			IP:        ip,
			Hostname:  h.Hostname,
			OS:        h.OSGuess,
			OpenPorts: utils.SortedInts(h.OpenPorts),
			LastSeen:  lastSeen,
		})
	}

	d.Summary = summarizeDelta(d, older, newer)
	return d
}

// summarizeDelta 端口类按端口数计，其余按条目计
func summarizeDelta(d *model.ScanDelta, older, newer *model.ScanSnapshot) model.DeltaSummary {
	s := model.DeltaSummary{
		NewHosts:              len(d.NewHosts),
		DisappearedHosts:      len(d.DisappearedHosts),
		OSChanges:             len(d.OSChanges),
		NewCriticalFindings:   len(d.NewCriticalFindings),
		FixedCriticalFindings: len(d.FixedCriticalFindings),
	}
	for _, p := range d.NewOpenPorts {
		s.NewOpenPorts += len(p.Ports)
	}
	for _, p := range d.ClosedPorts {
		s.ClosedPorts += len(p.Ports)
	}
	s.TotalChanges = s.NewHosts + s.DisappearedHosts + s.NewOpenPorts + s.ClosedPorts +
		s.OSChanges + s.NewCriticalFindings + s.FixedCriticalFindings

	if older != nil {
		s.OlderTimestamp = older.Timestamp
	}
	if newer != nil {
		s.NewerTimestamp = newer.Timestamp
	}
	return s
}

func aliveByIP(snap *model.ScanSnapshot) map[string]model.HostRecord {
	out := make(map[string]model.HostRecord)
	if snap == nil {
		return out
	}
	for _, h := range snap.Hosts {
		if h.Alive {
			out[h.IP] = h
		}
	}
	return out
}

// sortedKeys 按地址数值排序，非法地址退回字典序
func sortedKeys(m map[string]model.HostRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return ipLess(keys[i], keys[j])
	})
	return keys
}

func ipLess(a, b string) bool {
	ia, ib := net.ParseIP(a), net.ParseIP(b)
	if ia == nil || ib == nil {
		return a < b
	}
	return bytes.Compare(ia.To16(), ib.To16()) < 0
}

// Overview 历史概况
type Overview struct {
	TotalScans     int           `json:"total_scans"`
	FirstScan      time.Time     `json:"first_scan"`
	LastScan       time.Time     `json:"last_scan"`
	AvgAliveHosts  float64       `json:"avg_alive_hosts"`
	MaxAliveHosts  int           `json:"max_alive_hosts"`
	TotalCriticals int           `json:"total_critical_hosts"`
	Scans          []ScanSummary `json:"scans"`
}

// Summarize 汇总历史列表，输入为新的在前
func Summarize(scans []ScanSummary) Overview {
	o := Overview{TotalScans: len(scans), Scans: scans}
	if len(scans) == 0 {
		o.Scans = []ScanSummary{}
		return o
	}

	o.LastScan = scans[0].Timestamp
	o.FirstScan = scans[len(scans)-1].Timestamp
	alive := 0
	for _, s := range scans {
		alive += s.AliveHosts
		if s.AliveHosts > o.MaxAliveHosts {
			o.MaxAliveHosts = s.AliveHosts
		}
		o.TotalCriticals += s.CriticalHosts
	}
	o.AvgAliveHosts = float64(alive) / float64(len(scans))
	return o
}

// LatestComparison 将当前结果与存储中最近一次快照比较
// 没有历史时返回 nil, nil
func LatestComparison(ctx context.Context, store Store, current *model.ScanSnapshot) (*model.ScanDelta, error) {
	latest, err := store.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	return Diff(latest, current), nil
}

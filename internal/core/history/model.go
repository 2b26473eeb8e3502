package history

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"pathfinder/internal/model/basemodel"
)

// ScanRecord 扫描快照记录，只追加不修改
type ScanRecord struct {
	basemodel.BaseModel
	Name          string         `json:"name" gorm:"size:64;uniqueIndex;not null;comment:快照名称 scan_YYYYmmdd_HHMMSS"`
	ScanTime      time.Time      `json:"scan_time" gorm:"index;comment:扫描开始时间"`
	TargetRange   string         `json:"target_range" gorm:"size:2048;comment:目标范围"`
	TotalHosts    int            `json:"total_hosts" gorm:"comment:目标总数"`
	AliveHosts    int            `json:"alive_hosts" gorm:"comment:存活主机数"`
	OpenPorts     int            `json:"open_ports" gorm:"comment:开放端口总数"`
	CriticalHosts int            `json:"critical_hosts" gorm:"comment:严重风险主机数"`
	HighRiskHosts int            `json:"high_risk_hosts" gorm:"comment:高风险主机数"`
	Snapshot      datatypes.JSON `json:"snapshot" gorm:"comment:完整快照"`
	Hosts         []HostSnapshot `json:"hosts,omitempty" gorm:"foreignKey:ScanID"`
}

func (ScanRecord) TableName() string {
	return "scan_records"
}

// HostSnapshot 单主机摘要，便于在 SQL 侧按 IP 查询
type HostSnapshot struct {
	basemodel.BaseModel
	ScanID        uint64         `json:"scan_id" gorm:"index;not null"`
	IP            string         `json:"ip" gorm:"size:64;index"`
	Alive         bool           `json:"alive"`
	Hostname      string         `json:"hostname" gorm:"size:255"`
	OSGuess       string         `json:"os_guess" gorm:"size:128"`
	RiskLevel     string         `json:"risk_level" gorm:"size:16"`
	PriorityScore int            `json:"priority_score"`
	OpenPorts     datatypes.JSON `json:"open_ports"`
	CriticalCount int            `json:"critical_count"`
}

func (HostSnapshot) TableName() string {
	return "host_snapshots"
}

// ScanSummary 历史列表中的一行
type ScanSummary struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Timestamp     time.Time `json:"timestamp"`
	TargetRange   string    `json:"target_range"`
	TotalHosts    int       `json:"total_hosts"`
	AliveHosts    int       `json:"alive_hosts"`
	OpenPorts     int       `json:"open_ports"`
	CriticalHosts int       `json:"critical_hosts"`
	HighRiskHosts int       `json:"high_risk_hosts"`
}

func (r *ScanRecord) summary() ScanSummary {
	return ScanSummary{
		ID:            r.ID,
		Name:          r.Name,
		Timestamp:     r.ScanTime,
		TargetRange:   r.TargetRange,
		TotalHosts:    r.TotalHosts,
		AliveHosts:    r.AliveHosts,
		OpenPorts:     r.OpenPorts,
		CriticalHosts: r.CriticalHosts,
		HighRiskHosts: r.HighRiskHosts,
	}
}

// SummaryRows 历史列表的表格视图
type SummaryRows []ScanSummary

func (s SummaryRows) Headers() []string {
	return []string{"ID", "Name", "Time", "Range", "Alive/Total", "Open Ports", "Critical", "High"}
}

func (s SummaryRows) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, r := range s {
		rows = append(rows, []string{
			strconv.FormatUint(r.ID, 10),
			r.Name,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.TargetRange,
			fmt.Sprintf("%d/%d", r.AliveHosts, r.TotalHosts),
			strconv.Itoa(r.OpenPorts),
			strconv.Itoa(r.CriticalHosts),
			strconv.Itoa(r.HighRiskHosts),
		})
	}
	return rows
}

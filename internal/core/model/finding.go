package model

import "fmt"

// FindingSource 发现来源
type FindingSource string

const (
	SourceStatic  FindingSource = "static"
	SourceCVE     FindingSource = "cve"
	SourceDirScan FindingSource = "dirscan"
	SourceBrute   FindingSource = "brute"
)

// Confidence 匹配置信度
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceLow  Confidence = "LOW"
)

// Finding 单条安全发现
// 静态端口规则、CVE 关联、目录探测、弱口令结果统一使用该结构
type Finding struct {
	ID          string        `json:"id,omitempty"`
	Severity    Severity      `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Port        int           `json:"port,omitempty"`
	Source      FindingSource `json:"source"`
	Confidence  Confidence    `json:"confidence,omitempty"`
	Score       float64       `json:"score,omitempty"`
	Exploit     string        `json:"exploit,omitempty"`
	Version     string        `json:"version,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// String 单行展示
func (f Finding) String() string {
	if f.ID != "" {
		return fmt.Sprintf("%s %s", f.ID, f.Title)
	}
	return f.Title
}

// SecurityRisks 按等级分桶的发现列表，桶内保持插入顺序
type SecurityRisks struct {
	Critical []Finding `json:"critical"`
	High     []Finding `json:"high"`
	Medium   []Finding `json:"medium"`
	Low      []Finding `json:"low"`
}

// Add 追加发现到对应等级的桶，INFO 级别归入 Low
func (r *SecurityRisks) Add(f Finding) {
	switch f.Severity {
	case SeverityCritical:
		r.Critical = append(r.Critical, f)
	case SeverityHigh:
		r.High = append(r.High, f)
	case SeverityMedium:
		r.Medium = append(r.Medium, f)
	default:
		r.Low = append(r.Low, f)
	}
}

// Merge 合并另一组发现
func (r *SecurityRisks) Merge(other SecurityRisks) {
	r.Critical = append(r.Critical, other.Critical...)
	r.High = append(r.High, other.High...)
	r.Medium = append(r.Medium, other.Medium...)
	r.Low = append(r.Low, other.Low...)
}

// Count 返回指定等级的发现数量
func (r SecurityRisks) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return len(r.Critical)
	case SeverityHigh:
		return len(r.High)
	case SeverityMedium:
		return len(r.Medium)
	case SeverityLow:
		return len(r.Low)
	}
	return 0
}

// Total 发现总数
func (r SecurityRisks) Total() int {
	return len(r.Critical) + len(r.High) + len(r.Medium) + len(r.Low)
}

// Highest 返回最高的非空等级，全部为空时返回 INFO
func (r SecurityRisks) Highest() Severity {
	switch {
	case len(r.Critical) > 0:
		return SeverityCritical
	case len(r.High) > 0:
		return SeverityHigh
	case len(r.Medium) > 0:
		return SeverityMedium
	case len(r.Low) > 0:
		return SeverityLow
	}
	return SeverityInfo
}

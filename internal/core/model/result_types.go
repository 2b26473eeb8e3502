package model

import (
	"fmt"
	"strconv"
)

// CVEFinding 单条 CVE 关联结果
type CVEFinding struct {
	CVEID       string     `json:"cve_id"`
	Severity    Severity   `json:"severity"`
	CVSS        float64    `json:"cvss"`
	Description string     `json:"description"`
	Exploit     string     `json:"exploit"`
	Service     string     `json:"service"`
	Version     string     `json:"version"`
	Confidence  Confidence `json:"confidence"`
	Port        int        `json:"port"`
	Banner      string     `json:"banner,omitempty"`
}

// ToFinding 转为通用发现
func (c CVEFinding) ToFinding() Finding {
	return Finding{
		ID:          c.CVEID,
		Severity:    c.Severity,
		Title:       fmt.Sprintf("%s %s: %s", c.Service, c.Version, c.Description),
		Description: c.Description,
		Port:        c.Port,
		Source:      SourceCVE,
		Confidence:  c.Confidence,
		Score:       c.CVSS,
		Exploit:     c.Exploit,
		Version:     c.Version,
	}
}

// CVEReport 按等级分组的 CVE 结果
type CVEReport struct {
	Total    int          `json:"total"`
	Critical []CVEFinding `json:"critical"`
	High     []CVEFinding `json:"high"`
	Medium   []CVEFinding `json:"medium"`
	Low      []CVEFinding `json:"low"`
}

// Add 按等级归组
func (r *CVEReport) Add(f CVEFinding) {
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
	r.Total++
}

// All 按等级从高到低返回全部结果
func (r *CVEReport) All() []CVEFinding {
	out := make([]CVEFinding, 0, r.Total)
	out = append(out, r.Critical...)
	out = append(out, r.High...)
	out = append(out, r.Medium...)
	return append(out, r.Low...)
}

func (r *CVEReport) Headers() []string {
	return []string{"CVE", "Severity", "CVSS", "Service", "Version", "Port", "Confidence", "Description"}
}

func (r *CVEReport) Rows() [][]string {
	var rows [][]string
	for _, f := range r.All() {
		rows = append(rows, []string{
			f.CVEID,
			f.Severity.String(),
			strconv.FormatFloat(f.CVSS, 'f', 1, 64),
			f.Service,
			f.Version,
			strconv.Itoa(f.Port),
			string(f.Confidence),
			f.Description,
		})
	}
	return rows
}

// DirHit 目录探测命中
type DirHit struct {
	Path     string   `json:"path"`
	URL      string   `json:"url"`
	Status   int      `json:"status"`
	Size     int64    `json:"size"`
	Risk     Severity `json:"risk,omitempty"`
	Desc     string   `json:"description,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

// DirReport 目录探测汇总
type DirReport struct {
	BaseURL   string      `json:"base_url"`
	Found     []DirHit    `json:"found"`
	Protected []DirHit    `json:"protected"`
	Sensitive []DirHit    `json:"sensitive"`
	Stats     map[int]int `json:"stats"`
	Total     int         `json:"total"`
}

func (r *DirReport) Headers() []string {
	return []string{"Category", "Status", "Size", "URL", "Note"}
}

func (r *DirReport) Rows() [][]string {
	var rows [][]string
	add := func(category string, hits []DirHit) {
		for _, h := range hits {
			note := h.Redirect
			if h.Desc != "" {
				note = h.Desc
			}
			rows = append(rows, []string{category, strconv.Itoa(h.Status), strconv.FormatInt(h.Size, 10), h.URL, note})
		}
	}
	add("sensitive", r.Sensitive)
	add("found", r.Found)
	add("protected", r.Protected)
	return rows
}

// Credential 有效凭据
type Credential struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Risk     Severity `json:"risk"`
}

// 弱口令检测状态
const (
	BruteStatusCompleted        = "completed"
	BruteStatusMaxAttempts      = "max_attempts_reached"
	BruteStatusUnsupported      = "unsupported_service"
	BruteStatusCancelled        = "cancelled"
	BruteStatusConnectionFailed = "connection_failed"
)

// BruteReport 单个服务的弱口令检测结果
type BruteReport struct {
	Service     string       `json:"service"`
	IP          string       `json:"ip"`
	Port        int          `json:"port"`
	Vulnerable  bool         `json:"vulnerable"`
	Credentials []Credential `json:"credentials"`
	Attempts    int          `json:"attempts"`
	Status      string       `json:"status"`
}

func (r *BruteReport) Headers() []string {
	return []string{"Target", "Service", "Username", "Password", "Risk"}
}

func (r *BruteReport) Rows() [][]string {
	var rows [][]string
	target := fmt.Sprintf("%s:%d", r.IP, r.Port)
	for _, c := range r.Credentials {
		pass := c.Password
		if pass == "" {
			pass = "(empty)"
		}
		rows = append(rows, []string{target, r.Service, c.Username, pass, c.Risk.String()})
	}
	return rows
}

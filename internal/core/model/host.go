package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DetectionMethod 存活探测方式
type DetectionMethod string

const (
	MethodICMP DetectionMethod = "ICMP"
	MethodARP  DetectionMethod = "ARP"
	MethodTCP  DetectionMethod = "TCP"
	MethodNone DetectionMethod = "NONE"
)

// HTTPInfo HTTP(S) 元数据探测结果
type HTTPInfo struct {
	URL         string   `json:"url"`
	StatusCode  int      `json:"status_code"`
	Server      string   `json:"server,omitempty"`
	PoweredBy   string   `json:"powered_by,omitempty"`
	RobotsTxt   bool     `json:"robots_txt"`
	AdminPanels []string `json:"admin_panels,omitempty"`
}

// TLSInfo 证书有效期探测结果
type TLSInfo struct {
	Subject       string    `json:"subject,omitempty"`
	Issuer        string    `json:"issuer,omitempty"`
	ValidUntil    time.Time `json:"valid_until"`
	ExpiresInDays int       `json:"expires_in_days"`
	Valid         bool      `json:"valid"`
}

// Expired 证书是否已过期
func (t *TLSInfo) Expired() bool {
	return t != nil && !t.Valid
}

// HostRecord 单个目标的完整扫描结果
// 扫描期间只由所属的主机流水线写入，返回后不再修改
type HostRecord struct {
	IP              string          `json:"ip"`
	Alive           bool            `json:"alive"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	TTL             int             `json:"ttl"`
	Latency         time.Duration   `json:"latency"`
	MAC             string          `json:"mac,omitempty"`
	Hostname        string          `json:"hostname,omitempty"`
	HostnameSource  string          `json:"hostname_source,omitempty"`
	OSGuess         string          `json:"os_guess,omitempty"`
	DeviceType      string          `json:"device_type,omitempty"`

	OpenPorts []int          `json:"open_ports"`
	Banners   map[int]string `json:"banners,omitempty"`
	HTTP      *HTTPInfo      `json:"http,omitempty"`
	TLS       *TLSInfo       `json:"tls,omitempty"`

	CriticalServices []string      `json:"critical_services,omitempty"`
	SecurityRisks    SecurityRisks `json:"security_risks"`
	PriorityScore    int           `json:"priority_score"`
	RiskLevel        RiskLevel     `json:"risk_level"`

	CVE       *CVEReport     `json:"cve,omitempty"`
	Directory *DirReport     `json:"directory,omitempty"`
	Brute     []*BruteReport `json:"brute,omitempty"`

	Diagnostics  []string      `json:"diagnostics,omitempty"`
	ScanDuration time.Duration `json:"scan_duration"`
}

// NewHostRecord 创建未探测的主机记录
func NewHostRecord(ip string) *HostRecord {
	return &HostRecord{
		IP:              ip,
		DetectionMethod: MethodNone,
		OpenPorts:       []int{},
		Banners:         map[int]string{},
		RiskLevel:       SeverityInfo,
	}
}

// HasPort 判断端口是否开放
func (h *HostRecord) HasPort(port int) bool {
	for _, p := range h.OpenPorts {
		if p == port {
			return true
		}
	}
	return false
}

// AddDiagnostic 记录被隔离的错误
func (h *HostRecord) AddDiagnostic(format string, args ...interface{}) {
	h.Diagnostics = append(h.Diagnostics, fmt.Sprintf(format, args...))
}

// DisplayName 主机名优先，否则返回 IP
func (h *HostRecord) DisplayName() string {
	if h.Hostname != "" {
		return h.Hostname
	}
	return h.IP
}

// HostRows 主机列表的表格视图
type HostRows []HostRecord

func (r HostRows) Headers() []string {
	return []string{"IP", "Hostname", "MAC", "Method", "TTL", "OS", "Device", "Open Ports", "Score", "Risk"}
}

func (r HostRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, h := range r {
		if !h.Alive {
			continue
		}
		rows = append(rows, []string{
			h.IP,
			h.Hostname,
			h.MAC,
			string(h.DetectionMethod),
			strconv.Itoa(h.TTL),
			h.OSGuess,
			h.DeviceType,
			JoinPorts(h.OpenPorts),
			strconv.Itoa(h.PriorityScore),
			h.RiskLevel.String(),
		})
	}
	return rows
}

// JoinPorts 端口列表转为逗号分隔字符串
func JoinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

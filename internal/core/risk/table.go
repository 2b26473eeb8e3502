package risk

import "pathfinder/internal/core/model"

// PortRisk 高危端口条目
type PortRisk struct {
	Service  string
	Risk     string
	Severity model.Severity
}

// CriticalPorts 开放即计入高危服务的端口表，只读
var CriticalPorts = map[int]PortRisk{
	21:    {"FTP", "cleartext credentials", model.SeverityCritical},
	22:    {"SSH", "brute force possible", model.SeverityCritical},
	23:    {"Telnet", "insecure", model.SeverityCritical},
	25:    {"SMTP", "open relay possible", model.SeverityCritical},
	53:    {"DNS", "zone transfer possible", model.SeverityCritical},
	139:   {"NetBIOS", "Windows enumeration", model.SeverityCritical},
	445:   {"SMB", "EternalBlue, open shares", model.SeverityCritical},
	1433:  {"MSSQL", "SQL injection", model.SeverityCritical},
	3306:  {"MySQL", "SQL injection", model.SeverityCritical},
	3389:  {"RDP", "brute force", model.SeverityCritical},
	5432:  {"PostgreSQL", "SQL injection", model.SeverityCritical},
	5900:  {"VNC", "weak passwords", model.SeverityCritical},
	6379:  {"Redis", "unauthenticated by default", model.SeverityCritical},
	8080:  {"HTTP-Alt", "exposed admin interfaces", model.SeverityCritical},
	9200:  {"Elasticsearch", "unauthenticated access", model.SeverityCritical},
	27017: {"MongoDB", "NoSQL injection", model.SeverityCritical},
}

// DatabasePorts 合并为一条 "Exposed database" 发现
var DatabasePorts = []int{1433, 3306, 5432, 27017, 6379, 9200}

// 计分权重
const (
	scoreAlive            = 1
	scorePerOpenPort      = 1
	scorePerCriticalSvc   = 5
	scorePerCritical      = 10
	scorePerHigh          = 5
	scorePerMedium        = 2
	scoreCertExpired      = 8
	scoreCertExpiringSoon = 3
	scoreServerDisclosed  = 1

	certExpiryWarnDays = 30
)

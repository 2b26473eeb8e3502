package risk

import (
	"fmt"
	"strings"

	"pathfinder/internal/core/model"
)

// Assessment 风险评估结果
type Assessment struct {
	Risks            model.SecurityRisks
	CriticalServices []string
	Score            int
	Level            model.RiskLevel
}

// Assessor 根据端口、元数据与分析器结果计算风险
// 分析器结果只做归并，不重新推导
type Assessor struct {
	ports map[int]PortRisk
}

// NewAssessor 使用内置高危端口表
func NewAssessor() *Assessor {
	return &Assessor{ports: CriticalPorts}
}

// Assess 纯函数，多次调用结果一致
func (a *Assessor) Assess(h *model.HostRecord, extra ...model.Finding) Assessment {
	out := Assessment{Level: model.SeverityInfo}
	if h == nil || !h.Alive {
		return out
	}

	for _, port := range h.OpenPorts {
		pr, ok := a.ports[port]
		if !ok {
			continue
		}
		out.CriticalServices = append(out.CriticalServices, fmt.Sprintf("%s (%d)", pr.Service, port))
		out.Risks.Add(model.Finding{
			Severity: pr.Severity,
			Title:    fmt.Sprintf("Port %d (%s): %s", port, pr.Service, pr.Risk),
			Port:     port,
			Source:   model.SourceStatic,
		})
	}

	for _, f := range structuralFindings(h) {
		out.Risks.Add(f)
	}
	out.Risks.Merge(analyzerFindings(h))
	for _, f := range extra {
		out.Risks.Add(f)
	}

	out.Score = score(h, out)
	out.Level = out.Risks.Highest()
	if out.Level == model.SeverityInfo && len(h.OpenPorts) > 0 {
		out.Level = model.SeverityLow
	}
	return out
}

// Apply 评估并写回主机记录
func (a *Assessor) Apply(h *model.HostRecord, extra ...model.Finding) {
	res := a.Assess(h, extra...)
	h.SecurityRisks = res.Risks
	h.CriticalServices = res.CriticalServices
	h.PriorityScore = res.Score
	h.RiskLevel = res.Level
}

func structuralFindings(h *model.HostRecord) []model.Finding {
	var out []model.Finding
	add := func(sev model.Severity, port int, title string) {
		out = append(out, model.Finding{Severity: sev, Title: title, Port: port, Source: model.SourceStatic})
	}

	if h.HasPort(21) {
		add(model.SeverityHigh, 21, "FTP anonymous access possible")
	}
	if h.HasPort(23) {
		add(model.SeverityCritical, 23, "Telnet service exposed")
	}
	if h.HasPort(80) && !h.HasPort(443) {
		add(model.SeverityMedium, 80, "HTTP without HTTPS")
	}
	if h.HasPort(445) || h.HasPort(139) {
		port := 445
		if !h.HasPort(445) {
			port = 139
		}
		add(model.SeverityHigh, port, "SMB exposed")
	}
	if h.HasPort(3389) {
		add(model.SeverityHigh, 3389, "RDP exposed")
	}

	var dbPorts []string
	for _, p := range DatabasePorts {
		if h.HasPort(p) {
			dbPorts = append(dbPorts, fmt.Sprintf("%d", p))
		}
	}
	if len(dbPorts) > 0 {
		add(model.SeverityCritical, 0, "Exposed database (ports "+strings.Join(dbPorts, ", ")+")")
	}

	if h.HTTP != nil && len(h.HTTP.AdminPanels) > 0 {
		f := model.Finding{
			Severity:    model.SeverityCritical,
			Title:       "Exposed admin interfaces",
			Description: strings.Join(h.HTTP.AdminPanels, "; "),
			URL:         h.HTTP.URL,
			Source:      model.SourceStatic,
		}
		out = append(out, f)
	}
	if h.TLS.Expired() {
		add(model.SeverityMedium, 443, "Expired TLS certificate")
	}
	return out
}

// analyzerFindings CVE 按原等级归桶，敏感文件与弱口令一律为严重
func analyzerFindings(h *model.HostRecord) model.SecurityRisks {
	var r model.SecurityRisks
	if h.CVE != nil {
		for _, c := range h.CVE.All() {
			r.Add(c.ToFinding())
		}
	}
	if h.Directory != nil {
		for _, hit := range h.Directory.Sensitive {
			r.Add(model.Finding{
				Severity: model.SeverityCritical,
				Title:    "Sensitive file exposed: " + hit.Desc,
				URL:      hit.URL,
				Source:   model.SourceDirScan,
			})
		}
	}
	for _, b := range h.Brute {
		if b == nil {
			continue
		}
		for _, c := range b.Credentials {
			pass := c.Password
			if pass == "" {
				pass = "(empty)"
			}
			r.Add(model.Finding{
				Severity: model.SeverityCritical,
				Title:    fmt.Sprintf("Weak %s credentials: %s/%s", b.Service, c.Username, pass),
				Port:     b.Port,
				Source:   model.SourceBrute,
			})
		}
	}
	return r
}

func score(h *model.HostRecord, a Assessment) int {
	s := scoreAlive
	s += scorePerOpenPort * len(h.OpenPorts)
	s += scorePerCriticalSvc * len(a.CriticalServices)
	s += scorePerCritical * len(a.Risks.Critical)
	s += scorePerHigh * len(a.Risks.High)
	s += scorePerMedium * len(a.Risks.Medium)

	if h.TLS != nil {
		switch {
		case h.TLS.Expired():
			s += scoreCertExpired
		case h.TLS.ExpiresInDays < certExpiryWarnDays:
			s += scoreCertExpiringSoon
		}
	}
	if h.HTTP != nil && h.HTTP.Server != "" {
		s += scoreServerDisclosed
	}
	return s
}

package model

import (
	"fmt"
	"strings"
)

// Severity 风险等级，全序：INFO < LOW < MEDIUM < HIGH < CRITICAL
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// RiskLevel 主机整体风险等级
type RiskLevel = Severity

var severityNames = map[Severity]string{
	SeverityInfo:     "INFO",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity 解析等级字符串（不区分大小写）
func ParseSeverity(s string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for sev, name := range severityNames {
		if name == upper {
			return sev, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity: %q", s)
}

// MarshalText 以大写字符串输出
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 解析大写或小写字符串
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

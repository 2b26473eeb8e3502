package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrderingAndText(t *testing.T) {
	assert.True(t, SeverityInfo < SeverityLow)
	assert.True(t, SeverityLow < SeverityMedium)
	assert.True(t, SeverityMedium < SeverityHigh)
	assert.True(t, SeverityHigh < SeverityCritical)

	data, err := json.Marshal(struct {
		Level Severity `json:"level"`
	}{SeverityHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"HIGH"}`, string(data))

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("critical")))
	assert.Equal(t, SeverityCritical, s)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestSecurityRisksHighest(t *testing.T) {
	var r SecurityRisks
	assert.Equal(t, SeverityInfo, r.Highest())

	r.Add(Finding{Severity: SeverityLow, Title: "low"})
	assert.Equal(t, SeverityLow, r.Highest())

	r.Add(Finding{Severity: SeverityMedium, Title: "medium"})
	r.Add(Finding{Severity: SeverityCritical, Title: "critical"})
	assert.Equal(t, SeverityCritical, r.Highest())
	assert.Equal(t, 3, r.Total())
	assert.Equal(t, 1, r.Count(SeverityCritical))
	assert.Equal(t, 0, r.Count(SeverityHigh))
}

func TestSecurityRisksMergeKeepsOrder(t *testing.T) {
	var a, b SecurityRisks
	a.Add(Finding{Severity: SeverityCritical, Title: "first"})
	b.Add(Finding{Severity: SeverityCritical, Title: "second"})
	a.Merge(b)
	require.Len(t, a.Critical, 2)
	assert.Equal(t, "first", a.Critical[0].Title)
	assert.Equal(t, "second", a.Critical[1].Title)
}

func TestComputeStatistics(t *testing.T) {
	hosts := []HostRecord{
		{IP: "10.0.0.1", Alive: true, OpenPorts: []int{22, 80}, OSGuess: "Ubuntu Linux", DetectionMethod: MethodICMP, RiskLevel: SeverityCritical},
		{IP: "10.0.0.2", Alive: true, OpenPorts: []int{445}, OSGuess: "Windows", DetectionMethod: MethodARP, RiskLevel: SeverityHigh},
		{IP: "10.0.0.3", Alive: true, OpenPorts: []int{62078}, OSGuess: "iOS (iPhone/iPad)", DetectionMethod: MethodTCP, RiskLevel: SeverityLow},
		{IP: "10.0.0.4", Alive: false, DetectionMethod: MethodNone},
	}

	stats := ComputeStatistics(hosts)
	assert.Equal(t, 4, stats.TotalHosts)
	assert.Equal(t, 3, stats.AliveHosts)
	assert.Equal(t, 4, stats.TotalOpenPorts)
	assert.Equal(t, 1, stats.CriticalHosts)
	assert.Equal(t, 1, stats.HighRiskHosts)
	assert.Equal(t, 1, stats.OSDistribution[OSFamilyLinux])
	assert.Equal(t, 1, stats.OSDistribution[OSFamilyWindows])
	assert.Equal(t, 1, stats.OSDistribution[OSFamilyMobile])
	assert.Equal(t, 1, stats.MethodDistribution["ARP"])
	assert.Zero(t, stats.MethodDistribution["NONE"])
}

func TestNewSnapshotDerivesStatistics(t *testing.T) {
	hosts := []HostRecord{{IP: "10.0.0.1", Alive: true, OpenPorts: []int{80}}}
	snap := NewSnapshot("10.0.0.0/24", time.Now(), hosts)
	assert.Equal(t, ComputeStatistics(hosts), snap.Statistics)
	assert.Zero(t, snap.ID)
}

func TestOSFamily(t *testing.T) {
	cases := map[string]string{
		"Linux/Unix/macOS (TTL: 64)":      OSFamilyLinux,
		"macOS":                           OSFamilyMacOS,
		"Windows (RDP active)":            OSFamilyWindows,
		"Cisco/Network Device (TTL: 255)": OSFamilyNetwork,
		"iOS/Android (Mobile)":            OSFamilyMobile,
		"":                                OSFamilyUnknown,
		"Unknown (TTL: 12)":               OSFamilyUnknown,
	}
	for label, want := range cases {
		assert.Equal(t, want, OSFamily(label), label)
	}
}

func TestHostRowsSkipsDeadHosts(t *testing.T) {
	rows := HostRows{
		{IP: "10.0.0.1", Alive: true, OpenPorts: []int{22, 80}, RiskLevel: SeverityLow},
		{IP: "10.0.0.2"},
	}.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "22,80", rows[0][7])
}

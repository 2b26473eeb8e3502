package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/core/model"
)

func aliveHost(ports ...int) *model.HostRecord {
	h := model.NewHostRecord("10.0.0.5")
	h.Alive = true
	h.DetectionMethod = model.MethodTCP
	h.OpenPorts = ports
	return h
}

func TestAssessDeadHost(t *testing.T) {
	res := NewAssessor().Assess(model.NewHostRecord("10.0.0.9"))
	assert.Zero(t, res.Score)
	assert.Equal(t, model.SeverityInfo, res.Level)
	assert.Zero(t, res.Risks.Total())
}

func TestAssessTelnetAndHTTP(t *testing.T) {
	h := aliveHost(23, 80)
	res := NewAssessor().Assess(h)

	assert.Equal(t, model.SeverityCritical, res.Level)
	assert.Equal(t, []string{"Telnet (23)"}, res.CriticalServices)

	var titles []string
	for _, f := range res.Risks.Critical {
		titles = append(titles, f.Title)
	}
	assert.Contains(t, titles, "Telnet service exposed")
	require.Len(t, res.Risks.Medium, 1)
	assert.Equal(t, "HTTP without HTTPS", res.Risks.Medium[0].Title)

	// 1 + 2 端口 + 5 高危服务 + 2*10 严重 + 2 中危
	assert.Equal(t, 30, res.Score)
	assert.GreaterOrEqual(t, res.Score, 13)
}

func TestAssessOpenPortsWithoutFindingsIsLow(t *testing.T) {
	res := NewAssessor().Assess(aliveHost(443, 631))
	assert.Equal(t, model.SeverityLow, res.Level)
	assert.Equal(t, 3, res.Score)

	res = NewAssessor().Assess(aliveHost())
	assert.Equal(t, model.SeverityInfo, res.Level)
	assert.Equal(t, 1, res.Score)
}

func TestAssessDatabaseFindingListsPorts(t *testing.T) {
	res := NewAssessor().Assess(aliveHost(3306, 6379))
	var found bool
	for _, f := range res.Risks.Critical {
		if f.Title == "Exposed database (ports 3306, 6379)" {
			found = true
		}
	}
	assert.True(t, found)
	assert.Len(t, res.CriticalServices, 2)
}

func TestAssessMergesAnalyzerFindings(t *testing.T) {
	h := aliveHost(8000)
	h.CVE = &model.CVEReport{}
	h.CVE.Add(model.CVEFinding{CVEID: "CVE-2021-41773", Severity: model.SeverityCritical, Port: 8000})
	h.CVE.Add(model.CVEFinding{CVEID: "CVE-2021-28041", Severity: model.SeverityMedium, Port: 22})
	h.Directory = &model.DirReport{Sensitive: []model.DirHit{{Path: ".env", Risk: model.SeverityCritical, Desc: "Environment variables exposed"}}}
	h.Brute = []*model.BruteReport{{Service: "ftp", Port: 21, Credentials: []model.Credential{{Username: "anonymous"}}}}

	res := NewAssessor().Assess(h, model.Finding{Severity: model.SeverityHigh, Title: "custom", Source: model.SourceStatic})

	require.Len(t, res.Risks.Critical, 3)
	assert.Equal(t, "CVE-2021-41773", res.Risks.Critical[0].ID)
	assert.Equal(t, model.SourceDirScan, res.Risks.Critical[1].Source)
	assert.Equal(t, "Weak ftp credentials: anonymous/(empty)", res.Risks.Critical[2].Title)
	require.Len(t, res.Risks.Medium, 1)
	assert.Equal(t, model.SourceCVE, res.Risks.Medium[0].Source)
	require.Len(t, res.Risks.High, 1)
}

func TestAssessTLSAndServerHeader(t *testing.T) {
	h := aliveHost(443)
	h.HTTP = &model.HTTPInfo{Server: "nginx"}
	h.TLS = &model.TLSInfo{ValidUntil: time.Now().Add(-24 * time.Hour), ExpiresInDays: -1, Valid: false}

	res := NewAssessor().Assess(h)
	// 1 + 1 端口 + 2 中危 (过期证书) + 8 过期 + 1 Server 头
	assert.Equal(t, 13, res.Score)
	assert.Equal(t, model.SeverityMedium, res.Level)

	h.TLS = &model.TLSInfo{ExpiresInDays: 10, Valid: true}
	res = NewAssessor().Assess(h)
	assert.Equal(t, 1+1+3+1, res.Score)
}

func TestAssessIsIdempotentAndMonotonic(t *testing.T) {
	a := NewAssessor()
	h := aliveHost(21, 22, 80, 445)
	first := a.Assess(h)
	a.Apply(h)
	second := a.Assess(h)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Score, h.PriorityScore)
	assert.Equal(t, first.Level, h.RiskLevel)

	for _, sev := range []model.Severity{model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical} {
		more := a.Assess(h, model.Finding{Severity: sev, Title: "extra"})
		assert.GreaterOrEqual(t, more.Score, first.Score)
		assert.GreaterOrEqual(t, int(more.Level), int(first.Level))
	}
}

func TestLevelMatchesHighestBucket(t *testing.T) {
	a := NewAssessor()
	h := aliveHost(8443)
	assert.Equal(t, model.SeverityLow, a.Assess(h).Level)
	assert.Equal(t, model.SeverityHigh, a.Assess(h, model.Finding{Severity: model.SeverityHigh}).Level)
	assert.Equal(t, model.SeverityCritical, a.Assess(h, model.Finding{Severity: model.SeverityCritical}).Level)
}

package brute

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/config"
	"pathfinder/internal/core/model"
)

// mockCracker 模拟爆破器
type mockCracker struct {
	name    string
	mode    AuthMode
	calls   int32
	success func(auth Auth) bool
	err     error
}

func (m *mockCracker) Name() string   { return m.name }
func (m *mockCracker) Mode() AuthMode { return m.mode }
func (m *mockCracker) Check(ctx context.Context, host string, port int, auth Auth) (bool, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return false, m.err
	}
	if m.success != nil {
		return m.success(auth), nil
	}
	return false, nil
}

func newTestScanner(c Cracker) *Scanner {
	s := NewScanner(config.BruteConfig{MaxAttempts: 10, Delay: time.Millisecond, Timeout: time.Second, Concurrency: 4})
	if c != nil {
		s.RegisterCracker(c)
	}
	return s
}

func TestAttemptFindsCredential(t *testing.T) {
	c := &mockCracker{name: "ssh", mode: AuthModeUserPass, success: func(a Auth) bool {
		return a.Username == "root" && a.Password == "toor"
	}}
	s := newTestScanner(c)

	report, err := s.Attempt(context.Background(), Request{
		IP: "10.0.0.2", Port: 22, Service: "SSH",
		Users:     []string{"admin", "root"},
		Passwords: []string{"123456", "toor"},
	})
	require.NoError(t, err)

	assert.True(t, report.Vulnerable)
	assert.Equal(t, model.BruteStatusCompleted, report.Status)
	assert.Equal(t, 4, report.Attempts)
	require.Len(t, report.Credentials, 1)
	assert.Equal(t, "root", report.Credentials[0].Username)
	assert.Equal(t, model.SeverityCritical, report.Credentials[0].Risk)
}

func TestAttemptStopOnSuccess(t *testing.T) {
	c := &mockCracker{name: "ftp", mode: AuthModeUserPass, success: func(a Auth) bool { return true }}
	s := newTestScanner(c)

	report, err := s.Attempt(context.Background(), Request{IP: "10.0.0.2", Port: 21, Service: "ftp", StopOnSuccess: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempts)
	assert.Len(t, report.Credentials, 1)
}

func TestAttemptCapIsHard(t *testing.T) {
	c := &mockCracker{name: "ssh", mode: AuthModeUserPass}
	s := newTestScanner(c)

	report, err := s.Attempt(context.Background(), Request{IP: "10.0.0.2", Port: 22, Service: "ssh", MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&c.calls))
	assert.Equal(t, model.BruteStatusMaxAttempts, report.Status)
	assert.False(t, report.Vulnerable)
}

func TestAttemptUnsupportedService(t *testing.T) {
	s := newTestScanner(nil)
	report, err := s.Attempt(context.Background(), Request{IP: "10.0.0.2", Port: 5900, Service: "vnc"})
	require.NoError(t, err)
	assert.Equal(t, model.BruteStatusUnsupported, report.Status)
	assert.Zero(t, report.Attempts)
}

func TestAttemptAbortsAfterConnectionFailures(t *testing.T) {
	c := &mockCracker{name: "mysql", mode: AuthModeUserPass, err: ErrConnectionFailed}
	s := newTestScanner(c)

	report, err := s.Attempt(context.Background(), Request{IP: "10.0.0.2", Port: 3306, Service: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, model.BruteStatusConnectionFailed, report.Status)
	assert.Equal(t, maxConsecutiveConnFailures, report.Attempts)
}

func TestAttemptEnforcesDelay(t *testing.T) {
	c := &mockCracker{name: "ssh", mode: AuthModeUserPass}
	s := newTestScanner(c)

	start := time.Now()
	_, err := s.Attempt(context.Background(), Request{IP: "10.0.0.2", Port: 22, Service: "ssh", MaxAttempts: 3, Delay: 40 * time.Millisecond})
	require.NoError(t, err)
	// 首次尝试不等待，之后两次各间隔 40ms
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestAttemptCancelled(t *testing.T) {
	c := &mockCracker{name: "ssh", mode: AuthModeUserPass}
	s := newTestScanner(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := s.Attempt(ctx, Request{IP: "10.0.0.2", Port: 22, Service: "ssh"})
	assert.Error(t, err)
	assert.Equal(t, model.BruteStatusCancelled, report.Status)
}

func TestQuickCheckOnlyReportsVulnerable(t *testing.T) {
	ftpCracker := &mockCracker{name: "ftp", mode: AuthModeUserPass, success: func(a Auth) bool {
		return a.Username == "anonymous"
	}}
	sshCracker := &mockCracker{name: "ssh", mode: AuthModeUserPass}
	s := newTestScanner(ftpCracker)
	s.RegisterCracker(sshCracker)

	results := s.QuickCheck(context.Background(), "10.0.0.2", []int{21, 22, 80})
	require.Len(t, results, 1)
	assert.Equal(t, "ftp", results[0].Service)
	assert.LessOrEqual(t, results[0].Attempts, 5)
	assert.LessOrEqual(t, atomic.LoadInt32(&sshCracker.calls), int32(5))
}

func TestGenerate(t *testing.T) {
	list := Generate("postgres", AuthModeUserPass, []string{"bob"}, []string{"%user%123", ""})
	assert.Equal(t, []Auth{{Username: "bob", Password: "bob123"}, {Username: "bob", Password: ""}}, list)

	only := Generate("redis", AuthModeOnlyPass, nil, []string{"%user%"})
	assert.Equal(t, []Auth{{Password: "admin"}}, only)

	telnet := DictFor("telnet")
	assert.Len(t, telnet.Users, 5)
	assert.Len(t, telnet.Passwords, 8)
	assert.Equal(t, CommonUsers, DictFor("unknown").Users)
}

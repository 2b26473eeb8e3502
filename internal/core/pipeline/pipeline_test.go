package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/core/analyzer/cve"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/scanner/alive"
	"pathfinder/internal/core/scanner/port"
)

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "192.168.1.10", []string{"192.168.1.10"}},
		{"cidr /30", "10.0.0.0/30", []string{"10.0.0.1", "10.0.0.2"}},
		{"cidr /31", "10.0.0.0/31", []string{"10.0.0.0", "10.0.0.1"}},
		{"cidr /32", "10.0.0.7/32", []string{"10.0.0.7"}},
		{"last octet", "10.0.0.1-3", []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}},
		{"full range", "10.0.0.254-10.0.1.1", []string{"10.0.0.254", "10.0.0.255", "10.0.1.0", "10.0.1.1"}},
		{"list dedup", "10.0.0.2, 10.0.0.0/30,10.0.0.9", []string{"10.0.0.2", "10.0.0.1", "10.0.0.9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandRangeCIDR24(t *testing.T) {
	got, err := ExpandRange("192.168.1.0/24")
	require.NoError(t, err)
	require.Len(t, got, 254)
	assert.Equal(t, "192.168.1.1", got[0])
	assert.Equal(t, "192.168.1.254", got[253])
}

func TestExpandRangeErrors(t *testing.T) {
	for _, in := range []string{"", "not-an-ip", "10.0.0.5-1", "10.0.0.1-300", "10.0.0.0/8", "::1", "10.0.0.0/33"} {
		_, err := ExpandRange(in)
		var rpe *RangeParseError
		assert.True(t, errors.As(err, &rpe), "input %q", in)
	}
}

func TestExpandRangeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("# lab\n10.1.1.1\n\n10.1.1.2-3\n"), 0o644))

	got, err := ExpandRange(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.1.1", "10.1.1.2", "10.1.1.3"}, got)
}

func TestLocalNetworks(t *testing.T) {
	orig := interfaceLister
	defer func() { interfaceLister = orig }()
	interfaceLister = func() (psnet.InterfaceStatList, error) {
		return psnet.InterfaceStatList{
			{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
			{Name: "eth0", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{
				{Addr: "192.168.7.23/16"},
				{Addr: "fe80::1/64"},
				{Addr: "169.254.10.2/16"},
			}},
			{Name: "eth1", Flags: []string{"broadcast"}, Addrs: psnet.InterfaceAddrList{{Addr: "10.9.9.9/24"}}},
		}, nil
	}

	nets, err := LocalNetworks()
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.7.0/24"}, nets)

	ips, err := ExpandRange("auto")
	require.NoError(t, err)
	assert.Len(t, ips, 254)
}

type fakeProber struct {
	method model.DetectionMethod
	alive  map[string]bool
}

func (p *fakeProber) Method() model.DetectionMethod { return p.method }

func (p *fakeProber) Probe(_ context.Context, ip string, _ time.Duration) (*alive.ProbeResult, error) {
	if p.alive[ip] {
		return alive.NewProbeResult(true, time.Millisecond, 0), nil
	}
	return nil, errors.New("no reply")
}

type fakeEnumerator struct {
	ports   map[string][]int
	banners map[string]map[int]string
	panic   map[string]bool
}

func (e *fakeEnumerator) Enumerate(_ context.Context, ip string, _ []int) *port.Result {
	if e.panic[ip] {
		panic("enumerator exploded")
	}
	res := &port.Result{OpenPorts: []int{}, Banners: map[int]string{}}
	for _, p := range e.ports[ip] {
		res.OpenPorts = append(res.OpenPorts, p)
		if b := e.banners[ip][p]; b != "" {
			res.Banners[p] = b
		}
	}
	return res
}

type fakeHTTP struct{}

func (fakeHTTP) Probe(_ context.Context, ip string, port int, useTLS bool) (*model.HTTPInfo, error) {
	return &model.HTTPInfo{URL: "http://" + ip, StatusCode: 200}, nil
}

type failingCVE struct{}

func (failingCVE) Analyze(context.Context, map[int]string) (*model.CVEReport, error) {
	return nil, errors.New("catalog unavailable")
}

func newTestOrchestrator(enum *fakeEnumerator, aliveIPs ...string) *Orchestrator {
	set := map[string]bool{}
	for _, ip := range aliveIPs {
		set[ip] = true
	}
	disc := alive.NewDiscoverer(
		alive.Step{Prober: &fakeProber{method: model.MethodICMP}, Timeout: 50 * time.Millisecond},
		alive.Step{Prober: &fakeProber{method: model.MethodARP}, Timeout: 50 * time.Millisecond},
		alive.Step{Prober: &fakeProber{method: model.MethodTCP, alive: set}, Timeout: 50 * time.Millisecond},
	)
	return NewOrchestrator(Components{
		Discoverer: disc,
		Enumerator: enum,
		HTTP:       fakeHTTP{},
		Neighbors: func(context.Context) (map[string]string, error) {
			return map[string]string{"10.0.0.5": "aa:bb:cc:dd:ee:ff"}, nil
		},
	}, time.Second, "quick")
}

func TestRunScanTelnetHostIsCritical(t *testing.T) {
	o := newTestOrchestrator(&fakeEnumerator{ports: map[string][]int{"10.0.0.5": {80, 23}}}, "10.0.0.5")

	snap := o.RunScan(context.Background(), []string{"10.0.0.4", "10.0.0.5"}, []int{23, 80}, 2)
	require.Len(t, snap.Hosts, 2)

	h := snap.Hosts[0]
	assert.Equal(t, "10.0.0.5", h.IP)
	assert.True(t, h.Alive)
	assert.Equal(t, model.MethodTCP, h.DetectionMethod)
	assert.Equal(t, []int{23, 80}, h.OpenPorts)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", h.MAC)
	assert.Equal(t, model.SeverityCritical, h.RiskLevel)
	assert.GreaterOrEqual(t, h.PriorityScore, 13)
	assert.NotNil(t, h.HTTP)

	var telnet bool
	for _, f := range h.SecurityRisks.Critical {
		if f.Port == 23 {
			telnet = true
		}
	}
	assert.True(t, telnet)

	dead := snap.Hosts[1]
	assert.False(t, dead.Alive)
	assert.Equal(t, model.MethodNone, dead.DetectionMethod)
	assert.Empty(t, dead.MAC)

	assert.Equal(t, 2, snap.Statistics.TotalHosts)
	assert.Equal(t, 1, snap.Statistics.AliveHosts)
	assert.Equal(t, 1, snap.Statistics.CriticalHosts)
}

func TestRunScanIsolatesPanics(t *testing.T) {
	enum := &fakeEnumerator{
		ports: map[string][]int{"10.0.0.2": {22}},
		panic: map[string]bool{"10.0.0.1": true},
	}
	o := newTestOrchestrator(enum, "10.0.0.1", "10.0.0.2")

	snap := o.RunScan(context.Background(), []string{"10.0.0.1", "10.0.0.2"}, nil, 2)
	require.Len(t, snap.Hosts, 2)

	byIP := map[string]model.HostRecord{}
	for _, h := range snap.Hosts {
		byIP[h.IP] = h
	}
	broken := byIP["10.0.0.1"]
	assert.True(t, broken.Alive)
	require.Len(t, broken.Diagnostics, 1)
	assert.Contains(t, broken.Diagnostics[0], "enumerator exploded")

	assert.Equal(t, []int{22}, byIP["10.0.0.2"].OpenPorts)
}

func TestRunScanRecordsAnalyzerFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeEnumerator{
		ports:   map[string][]int{"10.0.0.5": {22}},
		banners: map[string]map[int]string{"10.0.0.5": {22: "SSH-2.0-OpenSSH_7.4"}},
	}, "10.0.0.5")
	o.c.CVE = failingCVE{}

	snap := o.RunScan(context.Background(), []string{"10.0.0.5"}, nil, 1)
	require.Len(t, snap.Hosts, 1)
	assert.Equal(t, []string{"cve: catalog unavailable"}, snap.Hosts[0].Diagnostics)
	assert.Nil(t, snap.Hosts[0].CVE)
}

func TestRunScanCallsOnHost(t *testing.T) {
	o := newTestOrchestrator(&fakeEnumerator{}, "10.0.0.1")
	var calls int32
	o.OnHost = func(model.HostRecord) { atomic.AddInt32(&calls, 1) }

	targets, err := ExpandRange("10.0.0.0/29")
	require.NoError(t, err)
	snap := o.RunScan(context.Background(), targets, nil, 3)

	assert.Len(t, snap.Hosts, 6)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, snap.Statistics.AliveHosts)
}

func TestRunScanNeighborFailureIsNotFatal(t *testing.T) {
	o := newTestOrchestrator(&fakeEnumerator{}, "10.0.0.5")
	o.c.Neighbors = func(context.Context) (map[string]string, error) {
		return nil, errors.New("arp: command not found")
	}

	snap := o.RunScan(context.Background(), []string{"10.0.0.5"}, nil, 1)
	require.Len(t, snap.Hosts, 1)
	assert.True(t, snap.Hosts[0].Alive)
	assert.Empty(t, snap.Hosts[0].MAC)
}

func TestRunScanWithCatalogAnalyzer(t *testing.T) {
	enum := &fakeEnumerator{
		ports: map[string][]int{
			"10.0.0.5": {443},
			"10.0.0.6": {80},
		},
		banners: map[string]map[int]string{
			"10.0.0.6": {80: "HTTP/1.1 200 OK\r\nServer: Apache/2.4.49 (Unix)"},
		},
	}
	o := newTestOrchestrator(enum, "10.0.0.5", "10.0.0.6")
	catalog, err := cve.NewAnalyzer(nil, 0)
	require.NoError(t, err)
	o.c.CVE = catalog

	snap := o.RunScan(context.Background(), []string{"10.0.0.5", "10.0.0.6"}, nil, 2)
	require.Len(t, snap.Hosts, 2)
	byIP := map[string]model.HostRecord{}
	for _, h := range snap.Hosts {
		byIP[h.IP] = h
	}

	silent := byIP["10.0.0.5"]
	assert.Empty(t, silent.Banners)
	assert.Nil(t, silent.CVE)
	assert.Empty(t, silent.SecurityRisks.Critical)
	assert.Equal(t, model.SeverityLow, silent.RiskLevel)
	assert.Equal(t, 2, silent.PriorityScore)

	apache := byIP["10.0.0.6"]
	require.NotNil(t, apache.CVE)
	assert.Equal(t, model.SeverityCritical, apache.RiskLevel)
	var hit bool
	for _, f := range apache.SecurityRisks.Critical {
		if f.ID == "CVE-2021-41773" {
			hit = true
			assert.Equal(t, model.ConfidenceHigh, f.Confidence)
		}
	}
	assert.True(t, hit)
	assert.Equal(t, "10.0.0.6", snap.Hosts[0].IP)
}

func TestRunLabeledKeepsRangeInput(t *testing.T) {
	o := newTestOrchestrator(&fakeEnumerator{})
	targets, err := ExpandRange("10.0.0.0/24")
	require.NoError(t, err)

	snap := o.RunLabeled(context.Background(), "10.0.0.0/24", targets, nil, 64)
	assert.Equal(t, "10.0.0.0/24", snap.TargetRange)
	assert.Equal(t, 254, snap.Statistics.TotalHosts)

	snap = o.RunScan(context.Background(), targets, nil, 64)
	assert.Equal(t, "10.0.0.1,...,10.0.0.254 (254 hosts)", snap.TargetRange)
}

func TestTargetLabel(t *testing.T) {
	assert.Equal(t, "", TargetLabel(nil))
	assert.Equal(t, "10.0.0.1", TargetLabel([]string{"10.0.0.1"}))
	assert.Equal(t, "10.0.0.1,10.0.0.9", TargetLabel([]string{"10.0.0.1", "10.0.0.9"}))
	assert.Equal(t, "10.0.0.1,...,10.0.0.5 (5 hosts)",
		TargetLabel([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}))
}

func TestRangeLabel(t *testing.T) {
	orig := interfaceLister
	defer func() { interfaceLister = orig }()
	interfaceLister = func() (psnet.InterfaceStatList, error) {
		return psnet.InterfaceStatList{
			{Name: "eth0", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{{Addr: "192.168.7.23/24"}}},
		}, nil
	}

	assert.Equal(t, "192.168.1.0/24", RangeLabel(" 192.168.1.0/24 "))
	assert.Equal(t, "targets.txt", RangeLabel("targets.txt"))
	assert.Equal(t, "192.168.7.0/24", RangeLabel("auto"))
}

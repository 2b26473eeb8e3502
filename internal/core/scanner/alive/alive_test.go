package alive

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/core/model"
)

type fakeProber struct {
	method model.DetectionMethod
	alive  bool
	ttl    int
	err    error
	calls  int
}

func (f *fakeProber) Method() model.DetectionMethod { return f.method }

func (f *fakeProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return NewProbeResult(f.alive, time.Millisecond, f.ttl), nil
}

func TestDiscoverFallsBackToArp(t *testing.T) {
	icmp := &fakeProber{method: model.MethodICMP}
	arp := &fakeProber{method: model.MethodARP, alive: true}
	tcp := &fakeProber{method: model.MethodTCP, alive: true}

	d := NewDiscoverer(
		Step{Prober: icmp, Timeout: time.Second},
		Step{Prober: arp, Timeout: time.Second},
		Step{Prober: tcp, Timeout: time.Second},
	)
	res := d.Discover(context.Background(), "10.0.0.7")

	assert.True(t, res.Alive)
	assert.Equal(t, model.MethodARP, res.Method)
	assert.Equal(t, DefaultTTL, res.TTL)
	assert.Equal(t, 0, tcp.calls, "chain must stop at first success")
}

func TestDiscoverErrorIsNoSignal(t *testing.T) {
	icmp := &fakeProber{method: model.MethodICMP, err: errors.New("ping: not found")}
	tcp := &fakeProber{method: model.MethodTCP, alive: true, ttl: 0}

	res := NewDiscoverer(
		Step{Prober: icmp, Timeout: time.Second},
		Step{Prober: tcp, Timeout: time.Second},
	).Discover(context.Background(), "10.0.0.5")

	assert.True(t, res.Alive)
	assert.Equal(t, model.MethodTCP, res.Method)
}

func TestDiscoverKeepsIcmpTTL(t *testing.T) {
	res := NewDiscoverer(Step{Prober: &fakeProber{method: model.MethodICMP, alive: true, ttl: 128}, Timeout: time.Second}).
		Discover(context.Background(), "10.0.0.2")
	assert.Equal(t, 128, res.TTL)
	assert.Equal(t, model.MethodICMP, res.Method)
}

func TestDiscoverAllFail(t *testing.T) {
	res := NewDiscoverer(
		Step{Prober: &fakeProber{method: model.MethodICMP}, Timeout: time.Second},
		Step{Prober: &fakeProber{method: model.MethodARP}, Timeout: time.Second},
	).Discover(context.Background(), "10.0.0.9")

	assert.False(t, res.Alive)
	assert.Equal(t, 0, res.TTL)
	assert.Equal(t, model.MethodNone, res.Method)
}

func TestParsePingOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		goos    string
		latency time.Duration
		ttl     int
	}{
		{"linux", "64 bytes from 10.0.0.1: icmp_seq=1 ttl=63 time=1.50 ms", "linux", 1500 * time.Microsecond, 63},
		{"darwin", "64 bytes from 10.0.0.1: icmp_seq=0 ttl=64 time=3.123 ms", "darwin", 3123 * time.Microsecond, 64},
		{"windows", "Reply from 10.0.0.1: bytes=32 time=13ms TTL=128", "windows", 13 * time.Millisecond, 128},
		{"windows localized", "来自 127.0.0.1 的回复: 字节=32 时间<1ms TTL=128", "windows", time.Millisecond, 128},
		{"no ttl", "PING 10.0.0.1", "linux", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latency, ttl := parsePingOutput(tt.output, tt.goos)
			assert.Equal(t, tt.latency, latency)
			assert.Equal(t, tt.ttl, ttl)
		})
	}
}

func TestTcpConnectProberOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	res, err := NewTcpConnectProber([]int{port}).Probe(context.Background(), "127.0.0.1", time.Second)
	require.NoError(t, err)
	assert.True(t, res.Alive)
}

func TestTcpConnectProberRefusedMeansAlive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	res, err := NewTcpConnectProber([]int{port}).Probe(context.Background(), "127.0.0.1", time.Second)
	require.NoError(t, err)
	assert.True(t, res.Alive, "ECONNREFUSED on port "+strconv.Itoa(port)+" should count as alive")
}

func TestParseNeighborTables(t *testing.T) {
	proc := `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         AA:BB:CC:DD:EE:01     *        eth0
192.168.1.20     0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.1.30     0x1         0x2         aa:bb:cc:dd:ee:1e     *        eth0
`
	table := parseProcNetArp(proc)
	assert.Equal(t, map[string]string{
		"192.168.1.1":  "aa:bb:cc:dd:ee:01",
		"192.168.1.30": "aa:bb:cc:dd:ee:1e",
	}, table)

	bsd := `? (192.168.1.1) at 0:1b:2c:3d:4e:5f on en0 ifscope [ethernet]
? (192.168.1.9) at (incomplete) on en0 ifscope [ethernet]
`
	assert.Equal(t, map[string]string{"192.168.1.1": "00:1b:2c:3d:4e:5f"}, parseBSDArp(bsd))

	win := `
Interface: 192.168.1.10 --- 0xb
  Internet Address      Physical Address      Type
  192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
  192.168.1.255         ff-ff-ff-ff-ff-ff     static
`
	table = parseWindowsArp(win)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", table["192.168.1.1"])
	assert.Len(t, table, 2)
}

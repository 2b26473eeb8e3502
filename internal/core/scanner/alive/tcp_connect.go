package alive

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/model"
)

// TcpConnectProber 并发连接若干端口，任一端口连接成功或被拒绝即判定存活
type TcpConnectProber struct {
	Ports []int
}

func NewTcpConnectProber(ports []int) *TcpConnectProber {
	return &TcpConnectProber{Ports: ports}
}

func (p *TcpConnectProber) Method() model.DetectionMethod {
	return model.MethodTCP
}

func (p *TcpConnectProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type attempt struct {
		alive   bool
		latency time.Duration
	}
	results := make(chan attempt, len(p.Ports))

	d := dialer.Get()
	for _, port := range p.Ports {
		go func(port int) {
			start := time.Now()
			conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
			if err == nil {
				conn.Close()
				results <- attempt{true, time.Since(start)}
				return
			}
			// RST 说明主机在线，只是端口关闭
			results <- attempt{IsConnRefused(err), time.Since(start)}
		}(port)
	}

	for range p.Ports {
		select {
		case r := <-results:
			if r.alive {
				return NewProbeResult(true, r.latency, DefaultTTL), nil
			}
		case <-ctx.Done():
			return NewProbeResult(false, 0, 0), nil
		}
	}
	return NewProbeResult(false, 0, 0), nil
}

// IsConnRefused 判断是否为连接被拒绝
func IsConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

package alive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"pathfinder/internal/core/model"
)

var (
	reWinTime  = regexp.MustCompile(`[<>=]([\d\.]+) ?ms`)
	reWinTTL   = regexp.MustCompile(`TTL=(\d+)`)
	reUnixTime = regexp.MustCompile(`time[=<]([\d\.]+) ?ms`)
	reUnixTTL  = regexp.MustCompile(`(?i)ttl=(\d+)`)
)

// IcmpProber 调用系统 ping 命令，不需要原始套接字权限
type IcmpProber struct{}

func NewIcmpProber() *IcmpProber {
	return &IcmpProber{}
}

func (p *IcmpProber) Method() model.DetectionMethod {
	return model.MethodICMP
}

func (p *IcmpProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		ms := int(timeout.Milliseconds())
		if ms < 1 {
			ms = 1000
		}
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", fmt.Sprint(ms), ip)
	} else {
		// -W 以秒为单位
		sec := int(timeout.Seconds())
		if sec < 1 {
			sec = 1
		}
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", fmt.Sprint(sec), ip)
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return NewProbeResult(false, 0, 0), nil
	}

	latency, ttl := parsePingOutput(stdout.String(), runtime.GOOS)
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return NewProbeResult(true, latency, ttl), nil
}

// parsePingOutput 提取延迟与 TTL
// Windows: "Reply from 1.1.1.1: bytes=32 time=13ms TTL=56"，兼容中文输出
// Unix:    "64 bytes from 1.1.1.1: icmp_seq=1 ttl=56 time=13.5 ms"
func parsePingOutput(output string, goos string) (time.Duration, int) {
	reTime, reTTL := reUnixTime, reUnixTTL
	if goos == "windows" {
		reTime, reTTL = reWinTime, reWinTTL
	}

	var latency time.Duration
	if m := reTime.FindStringSubmatch(output); len(m) > 1 {
		if ms, err := strconv.ParseFloat(m[1], 64); err == nil {
			latency = time.Duration(ms * float64(time.Millisecond))
		}
	}

	var ttl int
	if m := reTTL.FindStringSubmatch(output); len(m) > 1 {
		ttl, _ = strconv.Atoi(m[1])
	}
	return latency, ttl
}

//go:build !windows && !darwin

package alive

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"pathfinder/internal/core/model"
)

// ArpProber 优先使用 iputils-arping，不可用时检查内核邻居表
type ArpProber struct{}

func NewArpProber() *ArpProber {
	return &ArpProber{}
}

func (p *ArpProber) Method() model.DetectionMethod {
	return model.MethodARP
}

func (p *ArpProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	if path, err := exec.LookPath("arping"); err == nil {
		sec := int(timeout.Seconds())
		if sec < 1 {
			sec = 1
		}
		// -f 收到第一个回复即退出
		cmd := exec.CommandContext(ctx, path, "-f", "-c", "1", "-w", fmt.Sprint(sec), ip)
		start := time.Now()
		if err := cmd.Run(); err == nil {
			return NewProbeResult(true, time.Since(start), DefaultTTL), nil
		}
	}

	return probeNeighborCache(ctx, ip)
}

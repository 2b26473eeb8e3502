//go:build darwin

package alive

import (
	"context"
	"os/exec"
	"time"

	"pathfinder/internal/core/model"
)

// ArpProber macOS 自带没有 arping（可通过 brew 安装），缺失时检查邻居表
type ArpProber struct{}

func NewArpProber() *ArpProber {
	return &ArpProber{}
}

func (p *ArpProber) Method() model.DetectionMethod {
	return model.MethodARP
}

func (p *ArpProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	if path, err := exec.LookPath("arping"); err == nil {
		cmd := exec.CommandContext(ctx, path, "-c", "1", ip)
		start := time.Now()
		if err := cmd.Run(); err == nil {
			return NewProbeResult(true, time.Since(start), DefaultTTL), nil
		}
	}

	return probeNeighborCache(ctx, ip)
}

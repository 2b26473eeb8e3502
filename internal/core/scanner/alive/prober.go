package alive

import (
	"context"
	"time"

	"pathfinder/internal/config"
	"pathfinder/internal/core/model"
	"pathfinder/internal/pkg/logger"
)

// DefaultTTL 无法从回显中获取 TTL 时使用的值
const DefaultTTL = 64

// DefaultTcpPorts TCP 存活探测端口，覆盖常见 Web 服务与移动设备
var DefaultTcpPorts = []int{80, 443, 8080, 5353, 62078}

// Prober 存活探测器
// 返回 error 视为"无信号"，由 Discoverer 继续下一种方式
type Prober interface {
	Method() model.DetectionMethod
	Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error)
}

// Step 探测链中的一步
type Step struct {
	Prober  Prober
	Timeout time.Duration
}

// Discoverer 按顺序执行探测链，第一个成功即返回
type Discoverer struct {
	steps []Step
}

// NewDiscoverer 创建探测链
func NewDiscoverer(steps ...Step) *Discoverer {
	return &Discoverer{steps: steps}
}

// NewDefaultDiscoverer ICMP -> ARP -> TCP
func NewDefaultDiscoverer(cfg config.DiscoveryConfig) *Discoverer {
	ports := cfg.TcpPorts
	if len(ports) == 0 {
		ports = DefaultTcpPorts
	}
	return NewDiscoverer(
		Step{Prober: NewIcmpProber(), Timeout: orDefault(cfg.IcmpTimeout, time.Second)},
		Step{Prober: NewArpProber(), Timeout: orDefault(cfg.ArpTimeout, 500*time.Millisecond)},
		Step{Prober: NewTcpConnectProber(ports), Timeout: orDefault(cfg.TcpTimeout, 500*time.Millisecond)},
	)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Discover 判断主机是否存活，步骤之间不重试
func (d *Discoverer) Discover(ctx context.Context, ip string) *ProbeResult {
	for _, step := range d.steps {
		if ctx.Err() != nil {
			break
		}

		stepCtx, cancel := context.WithTimeout(ctx, step.Timeout)
		res, err := step.Prober.Probe(stepCtx, ip, step.Timeout)
		cancel()

		if err != nil {
			logger.Debugf("[alive] %s probe on %s: %v", step.Prober.Method(), ip, err)
			continue
		}
		if res != nil && res.Alive {
			res.Method = step.Prober.Method()
			if res.TTL <= 0 {
				res.TTL = DefaultTTL
			}
			return res
		}
	}
	return NotAlive()
}

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pathfinder/internal/core/analyzer"
	"pathfinder/internal/core/model"
	"pathfinder/internal/core/risk"
	"pathfinder/internal/core/scanner/alive"
	"pathfinder/internal/core/scanner/fingerprint"
	"pathfinder/internal/core/scanner/port"
	"pathfinder/internal/pkg/logger"
	"pathfinder/internal/pkg/utils"
)

const (
	DefaultHostTimeout = 2 * time.Minute
	DefaultWorkers     = 50

	deviceUnknown = "Unknown"
)

var (
	// 明文 HTTP 探测候选端口，按顺序取第一个开放的
	httpCandidates = []int{80, 8000, 8080, 8443, 8888}
	// 目录探测候选端口
	dirCandidates = []int{80, 8080, 443, 8443}
	// 需要走 TLS 的端口
	tlsPorts = map[int]bool{443: true, 8443: true}
)

// HostDiscoverer 存活探测
type HostDiscoverer interface {
	Discover(ctx context.Context, ip string) *alive.ProbeResult
}

// PortEnumerator 端口枚举
type PortEnumerator interface {
	Enumerate(ctx context.Context, ip string, ports []int) *port.Result
}

// HTTPProber HTTP(S) 元数据探测
type HTTPProber interface {
	Probe(ctx context.Context, ip string, port int, useTLS bool) (*model.HTTPInfo, error)
}

// TLSProber 证书有效期探测
type TLSProber interface {
	Probe(ctx context.Context, ip string, port int) (*model.TLSInfo, error)
}

// HostnameResolver 主机名解析链
type HostnameResolver interface {
	Resolve(ctx context.Context, ip string, e fingerprint.Evidence) (string, string)
}

// NeighborReader 读取邻居表 (IP -> MAC)
type NeighborReader func(ctx context.Context) (map[string]string, error)

// Components 编排器依赖，Discoverer 与 Enumerator 必填
// 其余为空时跳过对应步骤或使用默认实现
type Components struct {
	Discoverer HostDiscoverer
	Enumerator PortEnumerator
	HTTP       HTTPProber
	TLS        TLSProber
	Resolver   HostnameResolver
	CVE        analyzer.CVEAnalyzer
	Directory  analyzer.DirectoryAnalyzer
	Assessor   *risk.Assessor
	Neighbors  NeighborReader
}

// Orchestrator 扫描编排器
// 每个目标一个 goroutine，由信号量限制并发，单个目标失败不影响其它目标
type Orchestrator struct {
	c           Components
	hostTimeout time.Duration
	dirLevel    string

	// OnHost 每完成一个目标回调一次，按完成顺序串行调用
	OnHost func(rec model.HostRecord)
}

// NewOrchestrator 创建编排器
func NewOrchestrator(c Components, hostTimeout time.Duration, dirLevel string) *Orchestrator {
	if c.CVE == nil {
		c.CVE = analyzer.Noop{}
	}
	if c.Directory == nil {
		c.Directory = analyzer.Noop{}
	}
	if c.Assessor == nil {
		c.Assessor = risk.NewAssessor()
	}
	if c.Neighbors == nil {
		c.Neighbors = alive.ReadNeighborTable
	}
	if hostTimeout <= 0 {
		hostTimeout = DefaultHostTimeout
	}
	return &Orchestrator{c: c, hostTimeout: hostTimeout, dirLevel: dirLevel}
}

// RunScan 扫描全部目标并生成快照
// 目标之间无顺序保证，结果按优先级分数降序稳定排序
func (o *Orchestrator) RunScan(ctx context.Context, targets []string, ports []int, workers int) *model.ScanSnapshot {
	return o.RunLabeled(ctx, TargetLabel(targets), targets, ports, workers)
}

// RunLabeled 同 RunScan，快照的 TargetRange 使用调用方给出的范围描述 (如用户输入的 CIDR)
func (o *Orchestrator) RunLabeled(ctx context.Context, targetRange string, targets []string, ports []int, workers int) *model.ScanSnapshot {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if len(ports) == 0 {
		ports = port.DefaultPorts
	}

	start := time.Now()
	scanID := "scan_" + start.Format("20060102_150405")
	logger.LogScanOperation(scanID, "network", utils.Truncate(targetRange, 128), "started", 0, "", 0,
		map[string]interface{}{"targets": len(targets), "ports": len(ports), "workers": workers})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		records = make([]*model.HostRecord, 0, len(targets))
		sem     = make(chan struct{}, workers)
	)

	for _, ip := range targets {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(target string) {
			defer wg.Done()
			defer func() { <-sem }()

			rec := o.scanHost(ctx, target, ports)

			mu.Lock()
			records = append(records, rec)
			if o.OnHost != nil {
				o.OnHost(*rec)
			}
			mu.Unlock()
		}(ip)
	}
	wg.Wait()

	o.fillMACs(ctx, records)

	hosts := make([]model.HostRecord, len(records))
	for i, r := range records {
		hosts[i] = *r
	}
	sort.SliceStable(hosts, func(i, j int) bool {
		return hosts[i].PriorityScore > hosts[j].PriorityScore
	})

	snap := model.NewSnapshot(targetRange, start, hosts)
	logger.LogScanOperation(scanID, "network", utils.Truncate(targetRange, 128), "completed", 100,
		fmt.Sprintf("%d/%d alive", snap.Statistics.AliveHosts, snap.Statistics.TotalHosts),
		time.Since(start), map[string]interface{}{
			"open_ports":     snap.Statistics.TotalOpenPorts,
			"critical_hosts": snap.Statistics.CriticalHosts,
		})
	return snap
}

// scanHost 单目标流水线
// Discover -> Enumerate -> HTTP/TLS -> OS -> Hostname -> CVE -> Directory -> Assess
func (o *Orchestrator) scanHost(parent context.Context, ip string, ports []int) (rec *model.HostRecord) {
	ctx, cancel := context.WithTimeout(parent, o.hostTimeout)
	defer cancel()

	start := time.Now()
	rec = model.NewHostRecord(ip)
	discovered := false

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[pipeline] %s pipeline panic: %v", ip, r)
			if !discovered {
				rec.Alive = false
				rec.DetectionMethod = model.MethodNone
			}
			rec.AddDiagnostic("panic: %v", r)
		}
		rec.ScanDuration = time.Since(start)
	}()

	// 1. Alive
	res := o.c.Discoverer.Discover(ctx, ip)
	discovered = true
	if res == nil || !res.Alive {
		logger.Debugf("[%s] target is not alive", ip)
		return rec
	}
	rec.Alive = true
	rec.DetectionMethod = res.Method
	rec.TTL = res.TTL
	rec.Latency = res.Latency
	logger.Debugf("[%s] alive via %s (ttl=%d, rtt=%v)", ip, res.Method, res.TTL, res.Latency)

	// 2. Port
	if pr := o.c.Enumerator.Enumerate(ctx, ip, ports); pr != nil {
		rec.OpenPorts = pr.OpenPorts
		rec.Banners = pr.Banners
	}
	if rec.OpenPorts == nil {
		rec.OpenPorts = []int{}
	}
	if rec.Banners == nil {
		rec.Banners = map[int]string{}
	}

	// 3. Web
	o.probeWeb(ctx, rec)

	// 4. Fingerprint
	ev := fingerprint.EvidenceFromHost(rec)
	rec.OSGuess = fingerprint.GuessOS(ev)
	rec.DeviceType = fingerprint.GuessDevice(ip, ev)
	if rec.DeviceType == "" {
		rec.DeviceType = deviceUnknown
	}
	if o.c.Resolver != nil {
		rec.Hostname, rec.HostnameSource = o.c.Resolver.Resolve(ctx, ip, ev)
	}

	// 5. Analyzers
	if len(rec.Banners) > 0 {
		report, err := o.c.CVE.Analyze(ctx, rec.Banners)
		if err != nil {
			o.analyzerFailed(rec, "cve", err)
		} else if report != nil && report.Total > 0 {
			rec.CVE = report
		}
	}

	if p, ok := firstOpen(rec, dirCandidates); ok {
		report, err := o.c.Directory.Probe(ctx, ip, p, tlsPorts[p], o.dirLevel)
		if err != nil {
			o.analyzerFailed(rec, "dirscan", err)
		} else if report != nil && report.Total > 0 {
			rec.Directory = report
		}
	}

	// 6. Risk
	o.c.Assessor.Apply(rec)

	logger.Infof("[%s] %d open ports, os=%s, risk=%s (score %d)",
		ip, len(rec.OpenPorts), rec.OSGuess, rec.RiskLevel, rec.PriorityScore)
	return rec
}

func (o *Orchestrator) probeWeb(ctx context.Context, rec *model.HostRecord) {
	if o.c.HTTP != nil {
		if p, ok := firstOpen(rec, httpCandidates); ok {
			info, err := o.c.HTTP.Probe(ctx, rec.IP, p, tlsPorts[p])
			if err != nil {
				logger.Debugf("[%s] http probe on %d: %v", rec.IP, p, err)
			} else {
				rec.HTTP = info
			}
		}
	}

	if !rec.HasPort(443) {
		return
	}
	if o.c.HTTP != nil {
		info, err := o.c.HTTP.Probe(ctx, rec.IP, 443, true)
		if err != nil {
			logger.Debugf("[%s] https probe: %v", rec.IP, err)
		} else if rec.HTTP == nil {
			rec.HTTP = info
		}
	}
	if o.c.TLS != nil {
		info, err := o.c.TLS.Probe(ctx, rec.IP, 443)
		if err != nil {
			logger.Debugf("[%s] tls probe: %v", rec.IP, err)
		} else {
			rec.TLS = info
		}
	}
}

func (o *Orchestrator) analyzerFailed(rec *model.HostRecord, name string, err error) {
	logger.Warnf("[%s] %s analyzer failed: %v", rec.IP, name, err)
	rec.AddDiagnostic("%s: %v", name, err)
}

// fillMACs 所有目标结束后读取一次邻居表
func (o *Orchestrator) fillMACs(ctx context.Context, records []*model.HostRecord) {
	table, err := o.c.Neighbors(ctx)
	if err != nil {
		logger.Warnf("[pipeline] read neighbor table: %v", err)
		return
	}
	for _, r := range records {
		if !r.Alive {
			continue
		}
		if mac, ok := table[r.IP]; ok {
			r.MAC = mac
		}
	}
}

func firstOpen(rec *model.HostRecord, candidates []int) (int, bool) {
	for _, p := range candidates {
		if rec.HasPort(p) {
			return p, true
		}
	}
	return 0, false
}

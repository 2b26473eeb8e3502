package fingerprint

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"pathfinder/internal/pkg/logger"
)

// 主机名来源
const (
	SourceDNS       = "dns"
	SourceDevice    = "device"
	SourceSynthetic = "synthetic"
)

// ErrToolNotFound 本地解析工具不存在
var ErrToolNotFound = errors.New("resolver tool not found")

// CommandRunner 执行外部命令并返回标准输出
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// AddrLookup 反向 DNS 查询
type AddrLookup func(ctx context.Context, ip string) ([]string, error)

type resolverTool struct {
	name  string
	args  func(ip string) []string
	parse func(output string) string
}

var resolverTools = []resolverTool{
	{"nslookup", func(ip string) []string { return []string{ip} }, parseNslookup},
	{"dig", func(ip string) []string { return []string{"+short", "-x", ip} }, parseDig},
	{"host", func(ip string) []string { return []string{ip} }, parseHost},
	{"avahi-resolve", func(ip string) []string { return []string{"-a", ip} }, parseAvahi},
	{"dns-sd", func(ip string) []string { return []string{"-G", "v4", ip} }, parseDNSSD},
}

// HostnameResolver 主机名解析链：反向 DNS -> 本地工具 -> 设备类别 -> 占位名称
type HostnameResolver struct {
	timeout  time.Duration
	useTools bool
	lookup   AddrLookup
	run      CommandRunner
}

// NewHostnameResolver 创建解析器，timeout 作用于每一步
func NewHostnameResolver(timeout time.Duration) *HostnameResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HostnameResolver{
		timeout:  timeout,
		useTools: runtime.GOOS != "windows",
		lookup:   net.DefaultResolver.LookupAddr,
		run:      runCommand,
	}
}

// WithLookup 替换反向 DNS 实现
func (r *HostnameResolver) WithLookup(fn AddrLookup) *HostnameResolver {
	r.lookup = fn
	return r
}

// WithRunner 替换命令执行实现
func (r *HostnameResolver) WithRunner(fn CommandRunner, enabled bool) *HostnameResolver {
	r.run = fn
	r.useTools = enabled
	return r
}

// Resolve 返回主机名及其来源，结果等于地址本身的一律丢弃
func (r *HostnameResolver) Resolve(ctx context.Context, ip string, e Evidence) (string, string) {
	if name := r.reverseDNS(ctx, ip); name != "" {
		return name, SourceDNS
	}

	if r.useTools && r.run != nil {
		for _, tool := range resolverTools {
			if ctx.Err() != nil {
				break
			}
			name, err := r.runTool(ctx, tool, ip)
			if err != nil {
				if !errors.Is(err, ErrToolNotFound) {
					logger.Debugf("[hostname] %s %s: %v", tool.name, ip, err)
				}
				continue
			}
			if valid(name, ip) {
				return name, tool.name
			}
		}
	}

	if name := GuessDevice(ip, e); valid(name, ip) {
		return name, SourceDevice
	}
	return SyntheticName(ip), SourceSynthetic
}

func (r *HostnameResolver) reverseDNS(ctx context.Context, ip string) string {
	if r.lookup == nil {
		return ""
	}
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	names, err := r.lookup(lctx, ip)
	if err != nil {
		return ""
	}
	for _, n := range names {
		n = strings.TrimSuffix(strings.TrimSpace(n), ".")
		if valid(n, ip) {
			return n
		}
	}
	return ""
}

func (r *HostnameResolver) runTool(ctx context.Context, tool resolverTool, ip string) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.run(tctx, tool.name, tool.args(ip)...)
	if err != nil {
		return "", err
	}
	return tool.parse(out), nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", ErrToolNotFound
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func valid(name, ip string) bool {
	return name != "" && name != ip
}

func cleanName(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}

// afterMarker 取首个包含 marker 的行中 marker 之后的部分
func afterMarker(output, marker string) string {
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(strings.ToLower(line), marker)
		if idx < 0 {
			continue
		}
		return cleanName(line[idx+len(marker):])
	}
	return ""
}

func parseNslookup(output string) string {
	return afterMarker(output, "name =")
}

func parseDig(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if name := cleanName(line); name != "" && !strings.HasPrefix(name, ";") {
			return name
		}
	}
	return ""
}

func parseHost(output string) string {
	return afterMarker(output, "domain name pointer")
}

func parseAvahi(output string) string {
	fields := strings.Fields(output)
	if len(fields) < 2 {
		return ""
	}
	return cleanName(fields[1])
}

func parseDNSSD(output string) string {
	name := afterMarker(output, "canonical name")
	if f := strings.Fields(name); len(f) > 0 {
		return cleanName(f[0])
	}
	return ""
}

package alive

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"
)

var (
	reMAC    = regexp.MustCompile(`([0-9A-Fa-f]{1,2}[:-]){5}[0-9A-Fa-f]{1,2}`)
	reBSDArp = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\) at (\S+)`)
)

// ReadNeighborTable 读取系统 ARP 邻居表，返回 ip -> mac（小写冒号分隔）
func ReadNeighborTable(ctx context.Context) (map[string]string, error) {
	if runtime.GOOS == "linux" {
		if data, err := os.ReadFile("/proc/net/arp"); err == nil {
			return parseProcNetArp(string(data)), nil
		}
	}

	args := []string{"-an"}
	if runtime.GOOS == "windows" {
		args = []string{"-a"}
	}
	out, err := exec.CommandContext(ctx, "arp", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("read neighbor table: %w", err)
	}

	if runtime.GOOS == "windows" {
		return parseWindowsArp(string(out)), nil
	}
	return parseBSDArp(string(out)), nil
}

// parseProcNetArp 解析 /proc/net/arp
// IP address  HW type  Flags  HW address  Mask  Device
func parseProcNetArp(data string) map[string]string {
	table := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || net.ParseIP(fields[0]) == nil {
			continue
		}
		// Flags 0x0 表示未完成解析
		if fields[2] == "0x0" {
			continue
		}
		if mac, ok := normalizeMAC(fields[3]); ok {
			table[fields[0]] = mac
		}
	}
	return table
}

// parseBSDArp 解析 `arp -an`
// ? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]
func parseBSDArp(data string) map[string]string {
	table := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		m := reBSDArp.FindStringSubmatch(line)
		if len(m) < 3 {
			continue
		}
		if mac, ok := normalizeMAC(m[2]); ok {
			table[m[1]] = mac
		}
	}
	return table
}

// parseWindowsArp 解析 `arp -a`
//   192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
func parseWindowsArp(data string) map[string]string {
	table := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || net.ParseIP(fields[0]) == nil {
			continue
		}
		if mac, ok := normalizeMAC(fields[1]); ok {
			table[fields[0]] = mac
		}
	}
	return table
}

// normalizeMAC 统一为小写冒号格式，补齐单个十六进制位
func normalizeMAC(raw string) (string, bool) {
	if !reMAC.MatchString(raw) {
		return "", false
	}
	parts := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != 6 {
		return "", false
	}
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	mac := strings.Join(parts, ":")
	if mac == "00:00:00:00:00:00" {
		return "", false
	}
	return mac, true
}

// probeNeighborCache 发送一个 UDP 报文触发地址解析，再检查邻居表中是否出现该地址
func probeNeighborCache(ctx context.Context, ip string) (*ProbeResult, error) {
	start := time.Now()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", net.JoinHostPort(ip, "9"))
	if err != nil {
		return nil, err
	}
	_, _ = conn.Write([]byte{0})
	conn.Close()

	for {
		table, err := ReadNeighborTable(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := table[ip]; ok {
			return NewProbeResult(true, time.Since(start), DefaultTTL), nil
		}

		select {
		case <-ctx.Done():
			return NewProbeResult(false, 0, 0), nil
		case <-time.After(50 * time.Millisecond):
		}
	}
}

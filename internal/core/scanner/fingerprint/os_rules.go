package fingerprint

import (
	"fmt"
	"strings"
)

// osRule 按表顺序匹配，第一个命中的规则给出标签
type osRule struct {
	name  string
	match func(e Evidence) (string, bool)
}

var osRules = []osRule{
	{"mobile-ports", func(e Evidence) (string, bool) {
		switch {
		case e.hasAny(62078, 7000, 3689):
			return "iOS (iPhone/iPad)", true
		case e.hasAny(8009, 8008):
			return "Android", true
		case e.has(5353) && e.TTL >= 60 && e.TTL <= 64 && len(e.OpenPorts) <= 3:
			return "iOS/Android (Mobile)", true
		}
		return "", false
	}},
	{"mobile-quiet", func(e Evidence) (string, bool) {
		if len(e.OpenPorts) <= 2 && e.TTL == 64 {
			return "Mobile (iOS/Android probable)", true
		}
		return "", false
	}},
	{"windows-ports", func(e Evidence) (string, bool) {
		if !e.hasAny(445, 3389, 135) {
			return "", false
		}
		if e.has(3389) {
			return "Windows (RDP active)", true
		}
		return "Windows", true
	}},
	{"ssh-banner", func(e Evidence) (string, bool) {
		if !e.has(22) {
			return "", false
		}
		b := e.banner(22)
		switch {
		case b == "":
			return "", false
		case strings.Contains(b, "ubuntu"):
			return "Ubuntu Linux", true
		case strings.Contains(b, "debian"):
			return "Debian Linux", true
		case containsAny(b, "centos", "redhat", "red hat"):
			return "CentOS/RedHat Linux", true
		case containsAny(b, "openssh", "ssh"):
			return "Linux/Unix", true
		}
		return "", false
	}},
	{"http-server", func(e Evidence) (string, bool) {
		s := strings.ToLower(e.server())
		switch {
		case s == "":
			return "", false
		case strings.Contains(s, "iis"):
			return "Windows Server", true
		case !strings.Contains(s, "apache"):
			return "", false
		case strings.Contains(s, "ubuntu"):
			return "Ubuntu Linux", true
		case strings.Contains(s, "debian"):
			return "Debian Linux", true
		case containsAny(s, "centos", "red hat"):
			return "CentOS/RedHat Linux", true
		}
		return "", false
	}},
	{"macos-services", func(e Evidence) (string, bool) {
		if e.has(5900) && e.has(88) {
			return "macOS", true
		}
		return "", false
	}},
	{"ttl", func(e Evidence) (string, bool) {
		return TTLLabel(e.TTL), true
	}},
}

// GuessOS 根据端口、banner 与 TTL 推测操作系统，标签仅供参考
func GuessOS(e Evidence) string {
	for _, r := range osRules {
		if label, ok := r.match(e); ok {
			return label
		}
	}
	return "Unknown"
}

// TTLLabel 按初始 TTL 区间分类
func TTLLabel(ttl int) string {
	switch {
	case ttl <= 0:
		return "Unknown"
	case ttl >= 60 && ttl <= 64:
		return "Linux/Unix/macOS (TTL: 64)"
	case ttl >= 50 && ttl < 60:
		return "Linux/Unix/macOS (distant)"
	case ttl >= 120 && ttl <= 128:
		return "Windows (TTL: 128)"
	case ttl >= 110 && ttl < 120:
		return "Windows (distant)"
	case ttl >= 240 && ttl <= 255:
		return "Cisco/Network Device (TTL: 255)"
	case ttl >= 230 && ttl < 240:
		return "Cisco/Network Device (distant)"
	case ttl > 128 && ttl < 230:
		return "Unknown Network Device"
	}
	return fmt.Sprintf("Unknown (TTL: %d)", ttl)
}

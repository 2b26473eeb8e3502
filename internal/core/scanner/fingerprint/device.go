package fingerprint

import (
	"fmt"
	"strings"
)

type deviceRule struct {
	name  string
	match func(ip string, e Evidence) (string, bool)
}

type bannerKeyword struct {
	words []string
	label string
}

// 单个 banner 内按此顺序匹配，banner 之间按端口升序
var bannerKeywords = []bannerKeyword{
	{[]string{"mikrotik", "routeros"}, "MikroTik Router"},
	{[]string{"cisco"}, "Cisco Router"},
	{[]string{"router", "gateway"}, "Router"},
	{[]string{"printer", "jetdirect"}, "Network Printer"},
	{[]string{"camera", "ipcam"}, "IP Camera"},
	{[]string{"nas", "synology", "qnap"}, "NAS"},
	{[]string{"raspberry", "raspbian"}, "Raspberry Pi"},
	{[]string{"arduino"}, "Arduino"},
	{[]string{"esp8266", "esp32"}, "ESP32/ESP8266"},
}

var databasePorts = []struct {
	port  int
	label string
}{
	{3306, "Database Server (MySQL/MariaDB)"},
	{5432, "Database Server (PostgreSQL)"},
	{27017, "Database Server (MongoDB)"},
	{6379, "Database Server (Redis)"},
	{1433, "Database Server (MSSQL)"},
}

var deviceRules = []deviceRule{
	{"mobile-ports", func(_ string, e Evidence) (string, bool) {
		switch {
		case e.has(62078):
			return "iPhone/iPad (Apple Home)", true
		case e.has(7000):
			return "iPhone/iPad (AirPlay)", true
		case e.has(3689):
			return "iPhone/iPad (iTunes/DAAP)", true
		case e.hasAny(8009, 8008):
			return "Android (Chromecast)", true
		case e.has(5353) && len(e.OpenPorts) <= 3:
			return "Smartphone (iOS/Android)", true
		}
		return "", false
	}},
	{"banner-keywords", func(_ string, e Evidence) (string, bool) {
		for _, text := range e.bannerTexts() {
			for _, kw := range bannerKeywords {
				if containsAny(text, kw.words...) {
					return kw.label, true
				}
			}
		}
		return "", false
	}},
	{"web-server", func(_ string, e Evidence) (string, bool) {
		if !e.hasAny(80, 8080, 443) || e.server() == "" {
			return "", false
		}
		s := strings.ToLower(e.server())
		switch {
		case strings.Contains(s, "apache"):
			return "Web Server (Apache)", true
		case strings.Contains(s, "nginx"):
			return "Web Server (nginx)", true
		case strings.Contains(s, "iis"):
			return "Web Server (IIS)", true
		}
		return fmt.Sprintf("Web Server (%s)", e.server()), true
	}},
	{"database", func(_ string, e Evidence) (string, bool) {
		for _, db := range databasePorts {
			if e.has(db.port) {
				return db.label, true
			}
		}
		return "", false
	}},
	{"windows-services", func(_ string, e Evidence) (string, bool) {
		switch {
		case e.has(3389):
			return "Windows (RDP)", true
		case e.has(445) && e.has(139):
			return "Windows (SMB)", true
		case e.has(445):
			return "Windows Device", true
		}
		return "", false
	}},
	{"mail", func(_ string, e Evidence) (string, bool) {
		switch {
		case e.hasAny(25, 587):
			return "Mail Server (SMTP)", true
		case e.hasAny(110, 143):
			return "Mail Server (POP/IMAP)", true
		}
		return "", false
	}},
	{"ssh-only", func(_ string, e Evidence) (string, bool) {
		if e.has(22) && len(e.OpenPorts) <= 3 {
			return "SSH Server (Linux)", true
		}
		return "", false
	}},
	{"gateway-address", func(ip string, _ Evidence) (string, bool) {
		if strings.HasSuffix(ip, ".1") || strings.HasSuffix(ip, ".254") {
			return "Gateway/Router", true
		}
		return "", false
	}},
}

// GuessDevice 根据端口、banner 与地址推测设备类别，无命中返回空串
func GuessDevice(ip string, e Evidence) string {
	for _, r := range deviceRules {
		if label, ok := r.match(ip, e); ok {
			return label
		}
	}
	return ""
}

// SyntheticName 按地址末段生成占位名称
func SyntheticName(ip string) string {
	octet := ip
	if i := strings.LastIndexByte(ip, '.'); i >= 0 {
		octet = ip[i+1:]
	}
	switch octet {
	case "1":
		return "Router/Gateway"
	case "255":
		return "Broadcast"
	case "0":
		return "Network"
	}
	return "Device-" + octet
}

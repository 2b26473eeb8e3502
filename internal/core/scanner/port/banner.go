package port

import (
	"net"
	"strings"
	"time"
	"unicode"
)

const maxBannerBytes = 1024

// grabBanner 在已建立的连接上读取一次 banner，HTTP 端口先发送 HEAD 请求
func grabBanner(conn net.Conn, port int, timeout time.Duration) string {
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if httpPorts[port] {
		if _, err := conn.Write([]byte("HEAD / HTTP/1.0\r\n\r\n")); err != nil {
			return ""
		}
	}

	buf := make([]byte, maxBannerBytes)
	n, _ := conn.Read(buf)
	if n <= 0 {
		return ""
	}
	return SanitizeBanner(string(buf[:n]))
}

// SanitizeBanner 去掉控制字符与非法 UTF-8，压缩空白为单个空格
func SanitizeBanner(raw string) string {
	s := strings.ToValidUTF8(raw, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

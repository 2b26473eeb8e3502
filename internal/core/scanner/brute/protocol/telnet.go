package protocol

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/ziutek/telnet"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/scanner/brute"
)

var (
	reTelnetLogin    = regexp.MustCompile(`(?i)(login|user\s*name|username|user)[\s:]*$`)
	reTelnetPassword = regexp.MustCompile(`(?i)(password|pass)[\s:]*$`)
	reTelnetShell    = regexp.MustCompile(`[#$>%]\s*$`)
	reTelnetFail     = regexp.MustCompile(`(?i)(incorrect|failed|denied|bad|invalid)`)
)

const telnetStepTimeout = 2 * time.Second

// TelnetCracker 提示符驱动的 Telnet 登录
// 登录提示 -> 用户名 -> 密码提示 -> 密码 -> 判定 shell 提示符或失败关键词
type TelnetCracker struct {
	stepTimeout time.Duration
}

func NewTelnetCracker() *TelnetCracker {
	return &TelnetCracker{stepTimeout: telnetStepTimeout}
}

func (c *TelnetCracker) Name() string { return "telnet" }

func (c *TelnetCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *TelnetCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	raw, err := dialer.Get().DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false, brute.ErrConnectionFailed
	}
	conn, err := telnet.NewConn(raw)
	if err != nil {
		raw.Close()
		return false, brute.ErrConnectionFailed
	}
	defer conn.Close()

	// 部分设备只要求密码
	prompt, err := c.readUntil(conn, reTelnetLogin, reTelnetPassword)
	if err != nil {
		return false, brute.ErrConnectionFailed
	}
	if !reTelnetPassword.Match(prompt) {
		if err := c.sendLine(conn, auth.Username); err != nil {
			return false, brute.ErrConnectionFailed
		}
		if _, err := c.readUntil(conn, reTelnetPassword); err != nil {
			return false, nil
		}
	}

	if err := c.sendLine(conn, auth.Password); err != nil {
		return false, brute.ErrConnectionFailed
	}
	return c.verdict(conn), nil
}

func (c *TelnetCracker) readUntil(conn *telnet.Conn, patterns ...*regexp.Regexp) ([]byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(c.stepTimeout))
	var buf []byte
	b := make([]byte, 1)
	for {
		n, err := conn.Read(b)
		if n > 0 {
			buf = append(buf, b[0])
			for _, re := range patterns {
				if re.Match(buf) {
					return buf, nil
				}
			}
		}
		if err != nil {
			return buf, err
		}
	}
}

func (c *TelnetCracker) sendLine(conn *telnet.Conn, line string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(c.stepTimeout))
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

// verdict 读到失败关键词或再次出现登录提示为失败，读到 shell 提示符为成功，超时按失败处理
func (c *TelnetCracker) verdict(conn *telnet.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(c.stepTimeout))
	var buf []byte
	b := make([]byte, 256)
	for {
		n, err := conn.Read(b)
		if n > 0 {
			buf = append(buf, b[:n]...)
			switch {
			case reTelnetFail.Match(buf), reTelnetLogin.Match(buf):
				return false
			case reTelnetShell.Match(buf):
				return true
			}
		}
		if err != nil {
			return false
		}
	}
}

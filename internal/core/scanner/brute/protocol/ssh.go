package protocol

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/scanner/brute"
)

// SSHCracker SSH 口令认证
type SSHCracker struct{}

func NewSSHCracker() *SSHCracker {
	return &SSHCracker{}
}

func (c *SSHCracker) Name() string { return "ssh" }

func (c *SSHCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

// Check 在全局拨号器建立的 TCP 连接上完成握手与认证
func (c *SSHCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := dialer.Get().DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, brute.ErrConnectionFailed
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(brute.DefaultTimeout)
	}
	_ = conn.SetDeadline(deadline)

	cfg := &ssh.ClientConfig{
		User:            auth.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(auth.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         time.Until(deadline),
	}

	client, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		return false, c.handleError(err)
	}
	go ssh.DiscardRequests(reqs)
	go func() {
		for ch := range chans {
			_ = ch.Reject(ssh.Prohibited, "no channels")
		}
	}()
	_ = client.Close()
	return true, nil
}

func (c *SSHCracker) handleError(err error) error {
	return classify(err, []string{"unable to authenticate", "no supported methods remain"}, brute.ErrProtocolError)
}

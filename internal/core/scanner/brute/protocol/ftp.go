package protocol

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strconv"

	"github.com/jlaffaye/ftp"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/scanner/brute"
)

// FTPCracker FTP 登录，包括匿名账户
type FTPCracker struct{}

func NewFTPCracker() *FTPCracker {
	return &FTPCracker{}
}

func (c *FTPCracker) Name() string { return "ftp" }

func (c *FTPCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *FTPCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			return dialer.Get().DialContext(ctx, network, address)
		}),
	)
	if err != nil {
		return false, brute.ErrConnectionFailed
	}
	defer conn.Quit()

	if err := conn.Login(auth.Username, auth.Password); err != nil {
		return false, c.handleError(err)
	}
	_ = conn.Logout()
	return true, nil
}

// handleError 530 为凭据错误，421 为服务端拒绝连接
func (c *FTPCracker) handleError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case ftp.StatusNotLoggedIn:
			return nil
		case ftp.StatusNotAvailable:
			return brute.ErrConnectionFailed
		}
	}
	return classify(err, []string{"530"}, brute.ErrProtocolError)
}

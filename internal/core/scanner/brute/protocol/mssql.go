package protocol

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/denisenkom/go-mssqldb"

	"pathfinder/internal/core/scanner/brute"
)

// MSSQLCracker SQL Server 登录，连接 master 库且不加密
type MSSQLCracker struct{}

func NewMSSQLCracker() *MSSQLCracker {
	return &MSSQLCracker{}
}

func (c *MSSQLCracker) Name() string { return "mssql" }

func (c *MSSQLCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *MSSQLCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	query := url.Values{}
	query.Set("database", "master")
	query.Set("encrypt", "disable")
	query.Set("connection timeout", "3")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(auth.Username, auth.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: query.Encode(),
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return false, fmt.Errorf("invalid dsn: %w", err)
	}
	defer db.Close()
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		return false, c.handleError(err)
	}
	return true, nil
}

// handleError 18456 Login failed 为认证失败
func (c *MSSQLCracker) handleError(err error) error {
	return classify(err, []string{"login failed"}, brute.ErrConnectionFailed)
}

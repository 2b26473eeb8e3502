package protocol

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"pathfinder/internal/core/scanner/brute"
)

// MySQLCracker MySQL 原生口令认证
type MySQLCracker struct{}

func NewMySQLCracker() *MySQLCracker {
	return &MySQLCracker{}
}

func (c *MySQLCracker) Name() string { return "mysql" }

func (c *MySQLCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *MySQLCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	cfg := mysql.NewConfig()
	cfg.User = auth.Username
	cfg.Passwd = auth.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.Timeout = brute.DefaultTimeout
	cfg.ReadTimeout = brute.DefaultTimeout

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return false, err
	}
	db := sql.OpenDB(connector)
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		return false, c.handleError(err)
	}
	return true, nil
}

func (c *MySQLCracker) handleError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045:
			return nil
		case 1040, 1129:
			return brute.ErrConnectionFailed
		}
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return brute.ErrConnectionFailed
	}
	return classify(err, []string{"access denied"}, brute.ErrProtocolError)
}

package protocol

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/lib/pq"

	"pathfinder/internal/core/scanner/brute"
)

// PostgresCracker PostgreSQL 口令认证，连接 postgres 库且不启用 SSL
type PostgresCracker struct{}

func NewPostgresCracker() *PostgresCracker {
	return &PostgresCracker{}
}

func (c *PostgresCracker) Name() string { return "postgres" }

func (c *PostgresCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *PostgresCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(auth.Username, auth.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/postgres",
		RawQuery: "sslmode=disable&connect_timeout=3",
	}

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return false, fmt.Errorf("invalid dsn: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, c.handleError(err)
	}
	return true, nil
}

// handleError 28P01/28000 为认证失败，53300 为连接数耗尽
func (c *PostgresCracker) handleError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			return nil
		case "53300":
			return brute.ErrConnectionFailed
		}
	}
	return classify(err, []string{"password authentication failed"}, brute.ErrProtocolError)
}

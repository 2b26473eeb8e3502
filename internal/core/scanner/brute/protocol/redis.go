package protocol

import (
	"context"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/scanner/brute"
)

// RedisCracker Redis AUTH，空密码即未授权访问检测
type RedisCracker struct{}

func NewRedisCracker() *RedisCracker {
	return &RedisCracker{}
}

func (c *RedisCracker) Name() string { return "redis" }

func (c *RedisCracker) Mode() brute.AuthMode { return brute.AuthModeOnlyPass }

func (c *RedisCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		Username:     auth.Username,
		Password:     auth.Password,
		Dialer:       dialer.Get().DialContext,
		DialTimeout:  brute.DefaultTimeout,
		ReadTimeout:  brute.DefaultTimeout,
		WriteTimeout: brute.DefaultTimeout,
		MaxRetries:   -1,
		PoolSize:     1,
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return false, c.handleError(err)
	}
	return true, nil
}

func (c *RedisCracker) handleError(err error) error {
	return classify(err,
		[]string{"invalid password", "wrongpass", "noauth", "authentication required"},
		brute.ErrProtocolError)
}

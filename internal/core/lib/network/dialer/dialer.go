package dialer

import (
	"context"
	"net"
	"time"
)

// Dialer 探测模块统一使用的拨号接口
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultDialer 直连拨号器
type DefaultDialer struct {
	Timeout time.Duration
}

// NewDefaultDialer 创建直连拨号器
func NewDefaultDialer(timeout time.Duration) *DefaultDialer {
	return &DefaultDialer{Timeout: timeout}
}

func (d *DefaultDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.Timeout}
	return nd.DialContext(ctx, network, address)
}

package port

import (
	"context"
	"errors"
	"net"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/lib/network/qos"
	"pathfinder/internal/pkg/logger"
)

const (
	DefaultPortTimeout   = 800 * time.Millisecond
	DefaultBannerTimeout = time.Second
)

// Result 单主机端口枚举结果
type Result struct {
	OpenPorts []int          // 升序
	Banners   map[int]string // 只包含返回了数据的开放端口
}

// Enumerator 单主机并发端口探测
// 所有主机共享同一个 limiter，保证全局套接字数量受控
type Enumerator struct {
	limiter       *qos.AdaptiveLimiter
	portTimeout   time.Duration
	bannerTimeout time.Duration
	dialer        dialer.Dialer
}

// NewEnumerator 创建端口枚举器，limiter 为空时按默认预算创建
func NewEnumerator(limiter *qos.AdaptiveLimiter, portTimeout, bannerTimeout time.Duration) *Enumerator {
	if limiter == nil {
		limiter = qos.NewAdaptiveLimiter(500, 50, 1000)
	}
	if portTimeout <= 0 {
		portTimeout = DefaultPortTimeout
	}
	if bannerTimeout <= 0 {
		bannerTimeout = DefaultBannerTimeout
	}
	return &Enumerator{
		limiter:       limiter,
		portTimeout:   portTimeout,
		bannerTimeout: bannerTimeout,
	}
}

// WithDialer 指定拨号器，未指定时使用全局拨号器
func (e *Enumerator) WithDialer(d dialer.Dialer) *Enumerator {
	e.dialer = d
	return e
}

// Enumerate 探测端口列表，拒绝与超时统一视为关闭/过滤
func (e *Enumerator) Enumerate(ctx context.Context, ip string, ports []int) *Result {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res = &Result{OpenPorts: []int{}, Banners: map[int]string{}}
	)

	d := e.dialer
	if d == nil {
		d = dialer.Get()
	}

	for _, p := range ports {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()

			if err := e.limiter.Acquire(ctx); err != nil {
				return
			}
			defer e.limiter.Release()

			open, banner := e.probe(ctx, d, ip, port)
			if !open {
				return
			}
			mu.Lock()
			res.OpenPorts = append(res.OpenPorts, port)
			if banner != "" {
				res.Banners[port] = banner
			}
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	sort.Ints(res.OpenPorts)
	return res
}

func (e *Enumerator) probe(ctx context.Context, d dialer.Dialer, ip string, port int) (bool, string) {
	dialCtx, cancel := context.WithTimeout(ctx, e.portTimeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		if isResourceExhausted(err) {
			e.limiter.OnFailure()
			logger.Debugf("[port] socket budget reduced to %d after %v", e.limiter.CurrentLimit(), err)
		}
		return false, ""
	}
	defer conn.Close()

	e.limiter.OnSuccess()
	return true, grabBanner(conn, port, e.bannerTimeout)
}

// isResourceExhausted 本地资源耗尽（文件描述符、端口、缓冲区）
func isResourceExhausted(err error) bool {
	return errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ENOBUFS) ||
		errors.Is(err, syscall.EADDRNOTAVAIL)
}

package qos

import (
	"context"
	"sync"
	"sync/atomic"
)

// AdaptiveLimiter 基于 AIMD 的全局套接字预算
// 连接成功累计到当前上限次数时上限 +1，资源耗尽类错误时上限乘以 0.7
type AdaptiveLimiter struct {
	tokens chan struct{}
	debt   int32 // 缩容时尚未回收的令牌数，Release 时销毁

	mu        sync.Mutex
	limit     int
	min       int
	max       int
	successes int
}

// NewAdaptiveLimiter 创建限流器，initial 会被收敛到 [min, max]
func NewAdaptiveLimiter(initial, min, max int) *AdaptiveLimiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}

	l := &AdaptiveLimiter{
		tokens: make(chan struct{}, max),
		limit:  initial,
		min:    min,
		max:    max,
	}
	for i := 0; i < initial; i++ {
		l.tokens <- struct{}{}
	}
	return l
}

// Acquire 获取令牌，阻塞直到可用或 ctx 结束
func (l *AdaptiveLimiter) Acquire(ctx context.Context) error {
	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release 归还令牌；存在缩容欠账时直接销毁
func (l *AdaptiveLimiter) Release() {
	for {
		d := atomic.LoadInt32(&l.debt)
		if d <= 0 {
			break
		}
		if atomic.CompareAndSwapInt32(&l.debt, d, d-1) {
			return
		}
	}

	select {
	case l.tokens <- struct{}{}:
	default:
	}
}

// OnSuccess 加性增长
func (l *AdaptiveLimiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successes++
	if l.successes >= l.limit {
		l.successes = 0
		l.grow(1)
	}
}

// OnFailure 乘性下降，至少减少 1
func (l *AdaptiveLimiter) OnFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cut := l.limit - int(float64(l.limit)*0.7)
	if cut < 1 {
		cut = 1
	}
	l.shrink(cut)
	l.successes = 0
}

func (l *AdaptiveLimiter) grow(n int) {
	target := l.limit + n
	if target > l.max {
		target = l.max
	}
	for ; l.limit < target; l.limit++ {
		// 先抵消欠账，再注入新令牌
		if d := atomic.LoadInt32(&l.debt); d > 0 && atomic.CompareAndSwapInt32(&l.debt, d, d-1) {
			continue
		}
		select {
		case l.tokens <- struct{}{}:
		default:
		}
	}
}

func (l *AdaptiveLimiter) shrink(n int) {
	target := l.limit - n
	if target < l.min {
		target = l.min
	}
	diff := l.limit - target
	if diff <= 0 {
		return
	}
	l.limit = target

	for ; diff > 0; diff-- {
		select {
		case <-l.tokens:
		default:
			atomic.AddInt32(&l.debt, int32(diff))
			return
		}
	}
}

// CurrentLimit 当前上限
func (l *AdaptiveLimiter) CurrentLimit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

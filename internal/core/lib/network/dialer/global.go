package dialer

import (
	"sync"
	"time"
)

var (
	globalMu     sync.RWMutex
	globalDialer Dialer = NewDefaultDialer(3 * time.Second)
)

// SetGlobalDialer 替换全局拨号器，配置了 --proxy 时由 CLI 调用
func SetGlobalDialer(d Dialer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalDialer = d
}

// Get 获取全局拨号器
func Get() Dialer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalDialer
}

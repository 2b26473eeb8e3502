package factory

import (
	"fmt"
	"time"

	"pathfinder/internal/config"
	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/pkg/logger"
)

const defaultProxyTimeout = 5 * time.Second

// ConfigureDialer 根据代理配置替换全局拨号器，override 非空时优先于配置文件
// 未配置代理时保持直连
func ConfigureDialer(cfg config.ProxyConfig, override string) error {
	addr := cfg.URL
	if override != "" {
		addr = override
	}
	if addr == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProxyTimeout
	}
	d, err := dialer.NewProxyDialer(addr, timeout)
	if err != nil {
		return fmt.Errorf("configure proxy: %w", err)
	}
	dialer.SetGlobalDialer(d)
	logger.Infof("[factory] outbound connections use proxy %s", d.ProxyURL.Redacted())
	return nil
}

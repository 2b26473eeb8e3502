package factory

import (
	"pathfinder/internal/config"
	"pathfinder/internal/core/scanner/brute"
	"pathfinder/internal/core/scanner/brute/protocol"
)

// NewFullBruteScanner 创建注册了全部协议的弱口令扫描器
// CLI 与 QuickCheck 共用同一套能力，避免在不同入口重复注册
func NewFullBruteScanner(cfg config.BruteConfig) *brute.Scanner {
	s := brute.NewScanner(cfg)
	protocol.RegisterAll(s)
	return s
}

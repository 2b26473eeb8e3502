package protocol

import (
	"strings"

	"pathfinder/internal/core/scanner/brute"
)

// 常见网络层错误片段，跨平台
var connFailureMarkers = []string{
	"timeout",
	"connection refused",
	"no route to host",
	"network is unreachable",
	"connection reset",
	"broken pipe",
	"target machine actively refused",
	"connectex",
	"context deadline exceeded",
	"eof",
}

// classify 将驱动错误归类：命中 authMarkers 视为密码错误 (nil)，
// 命中网络错误片段为 ErrConnectionFailed，其余为 fallback
func classify(err error, authMarkers []string, fallback error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return nil
		}
	}
	for _, m := range connFailureMarkers {
		if strings.Contains(msg, m) {
			return brute.ErrConnectionFailed
		}
	}
	return fallback
}

// RegisterAll 注册全部内置协议
func RegisterAll(s *brute.Scanner) {
	for _, c := range []brute.Cracker{
		NewSSHCracker(),
		NewFTPCracker(),
		NewTelnetCracker(),
		NewMySQLCracker(),
		NewPostgresCracker(),
		NewRedisCracker(),
		NewMongoCracker(),
		NewMSSQLCracker(),
		NewSNMPCracker(),
	} {
		s.RegisterCracker(c)
	}
}

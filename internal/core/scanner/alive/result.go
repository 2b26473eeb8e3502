package alive

import (
	"time"

	"pathfinder/internal/core/model"
)

// ProbeResult 单次存活探测结果
type ProbeResult struct {
	Alive   bool
	Latency time.Duration
	TTL     int
	Method  model.DetectionMethod
}

// NewProbeResult 创建存活结果
func NewProbeResult(alive bool, latency time.Duration, ttl int) *ProbeResult {
	return &ProbeResult{
		Alive:   alive,
		Latency: latency,
		TTL:     ttl,
	}
}

// NotAlive 所有探测均失败时的结果
func NotAlive() *ProbeResult {
	return &ProbeResult{Method: model.MethodNone}
}

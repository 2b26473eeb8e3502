//go:build windows

package alive

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"syscall"
	"time"
	"unsafe"

	"pathfinder/internal/core/model"
)

// SendARP(DestIP, SrcIP, pMacAddr, PhyAddrLen) 由 iphlpapi.dll 提供
var (
	modIphlpapi = syscall.NewLazyDLL("iphlpapi.dll")
	procSendARP = modIphlpapi.NewProc("SendARP")
)

type ArpProber struct{}

func NewArpProber() *ArpProber {
	return &ArpProber{}
}

func (p *ArpProber) Method() model.DetectionMethod {
	return model.MethodARP
}

func (p *ArpProber) Probe(ctx context.Context, ip string, timeout time.Duration) (*ProbeResult, error) {
	dest := net.ParseIP(ip).To4()
	if dest == nil {
		return nil, fmt.Errorf("not an ipv4 address: %s", ip)
	}
	destAddr := binary.LittleEndian.Uint32(dest)

	// SendARP 阻塞且没有超时参数，放到协程中由 ctx 控制返回
	done := make(chan bool, 1)
	start := time.Now()
	go func() {
		mac := make([]byte, 6)
		macLen := uint32(len(mac))
		r1, _, _ := procSendARP.Call(
			uintptr(destAddr),
			0,
			uintptr(unsafe.Pointer(&mac[0])),
			uintptr(unsafe.Pointer(&macLen)),
		)
		done <- r1 == 0
	}()

	select {
	case ok := <-done:
		if ok {
			return NewProbeResult(true, time.Since(start), DefaultTTL), nil
		}
		return NewProbeResult(false, 0, 0), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package protocol

import (
	"context"
	"time"

	"github.com/gosnmp/gosnmp"

	"pathfinder/internal/core/scanner/brute"
)

// sysDescr.0
const oidSysDescr = "1.3.6.1.2.1.1.1.0"

// SNMPCracker SNMP v2c 团体名猜测
// UDP 下团体名错误与丢包表现一致，均视为失败
type SNMPCracker struct{}

func NewSNMPCracker() *SNMPCracker {
	return &SNMPCracker{}
}

func (c *SNMPCracker) Name() string { return "snmp" }

func (c *SNMPCracker) Mode() brute.AuthMode { return brute.AuthModeOnlyPass }

func (c *SNMPCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return false, ctx.Err()
	}

	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      uint16(port),
		Community: auth.Password,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0,
		Transport: "udp",
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return false, brute.ErrConnectionFailed
	}
	defer client.Conn.Close()

	pkt, err := client.Get([]string{oidSysDescr})
	if err != nil {
		return false, nil
	}
	return pkt != nil && pkt.Error == gosnmp.NoError && len(pkt.Variables) > 0, nil
}
